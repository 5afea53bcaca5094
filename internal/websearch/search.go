// Package websearch adapts the Exa search service for general market and
// category context lookups.
package websearch

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/sellersight/sellersight/internal/api/exa"
)

const (
	// maxResults caps results per search.
	maxResults = 3
	// contentCap bounds page content carried per result.
	contentCap = 1000
)

// Result is one web search hit as fed back to the model.
type Result struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	PublishedDate string `json:"publishedDate,omitempty"`
}

// Searcher is the external web search capability.
type Searcher interface {
	Search(ctx context.Context, req *exa.SearchRequest) (*exa.SearchResponse, error)
}

// Service wraps a Searcher with the result bounds the tool contract promises.
type Service struct {
	searcher   Searcher
	numResults int
	logger     *slog.Logger
}

// NewService creates the web search service. numResults is clamped to
// maxResults.
func NewService(searcher Searcher, numResults int, logger *slog.Logger) *Service {
	if numResults < 1 || numResults > maxResults {
		numResults = maxResults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{searcher: searcher, numResults: numResults, logger: logger}
}

// Search runs one web search. A transport failure yields an empty slice, not
// an error, so the tool-calling loop always continues.
func (s *Service) Search(ctx context.Context, query string) []Result {
	resp, err := s.searcher.Search(ctx, &exa.SearchRequest{
		Query:      query,
		NumResults: s.numResults,
		Contents:   &exa.ContentsRequest{Text: true},
	})
	if err != nil {
		s.logger.Warn("web search failed", slog.String("error", err.Error()))
		return []Result{}
	}

	hits := resp.Results
	if len(hits) > s.numResults {
		hits = hits[:s.numResults]
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		content := truncateRunes(hit.Text, contentCap)
		results = append(results, Result{
			Title:         hit.Title,
			URL:           hit.URL,
			Content:       content,
			PublishedDate: hit.PublishedDate,
		})
	}
	return results
}

// truncateRunes caps s at n characters without splitting a multi-byte rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
