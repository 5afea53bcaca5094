// Package pinecone provides a minimal HTTP client for the Pinecone records
// search API used by the retrieval adapter.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const apiVersion = "2025-01"

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client talks to one serverless index identified by its host.
type Client struct {
	apiKey     string
	indexHost  string
	httpClient *http.Client
}

// NewClient creates a client for the index at indexHost.
func NewClient(apiKey, indexHost string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		indexHost:  strings.TrimSuffix(indexHost, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchRequest is a records search with integrated text embedding.
type SearchRequest struct {
	Query  SearchQuery `json:"query"`
	Fields []string    `json:"fields,omitempty"`
}

// SearchQuery carries the natural-language query and result bound.
type SearchQuery struct {
	Inputs SearchInputs `json:"inputs"`
	TopK   int          `json:"top_k"`
	Filter map[string]any `json:"filter,omitempty"`
}

// SearchInputs holds the query text.
type SearchInputs struct {
	Text string `json:"text"`
}

// SearchResponse is the records search result envelope.
type SearchResponse struct {
	Result SearchResult `json:"result"`
	Usage  *SearchUsage `json:"usage,omitempty"`
}

// SearchResult holds the relevance-ordered hits.
type SearchResult struct {
	Hits []Hit `json:"hits"`
}

// Hit is one matching record with its projected fields.
type Hit struct {
	ID     string         `json:"_id"`
	Score  float64        `json:"_score"`
	Fields map[string]any `json:"fields"`
}

// SearchUsage reports read units consumed.
type SearchUsage struct {
	ReadUnits int `json:"read_units"`
}

// SearchRecords runs one similarity search within a namespace. Hits come
// back in the service's relevance order and may be empty.
func (c *Client) SearchRecords(ctx context.Context, namespace string, req *SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/records/namespaces/%s/search", c.indexHost, url.PathEscape(namespace))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Api-Key", c.apiKey)
	httpReq.Header.Set("X-Pinecone-API-Version", apiVersion)
	httpReq.Header.Set("User-Agent", "sellersight/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}
