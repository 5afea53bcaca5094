// Package retrieval queries the review vector index and shapes raw hits into
// a bounded evidence block the model can cite from.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sellersight/sellersight/internal/api/pinecone"
)

// Sentinel is the payload returned when the search ran but matched nothing.
// Downstream prompting distinguishes "no evidence" from "search did not run".
const Sentinel = "NO_RAG_RESULTS"

const (
	// snippetCap bounds the review text carried per hit.
	snippetCap = 400

	hitSeparator = "\n\n---\n\n"
	openDelim    = "<results>"
	closeDelim   = "</results>"
)

// fieldProjection is the fixed set of stored fields requested per hit.
var fieldProjection = []string{
	"text",
	"chunk_text",
	"asin",
	"parent_asin",
	"which_product",
	"rating",
	"verified_purchase",
	"helpful_vote",
	"timestamp",
}

// Searcher is the similarity-search capability behind the adapter.
type Searcher interface {
	SearchRecords(ctx context.Context, namespace string, req *pinecone.SearchRequest) (*pinecone.SearchResponse, error)
}

// Adapter runs similarity searches against a fixed namespace and formats the
// hits as an evidence block.
type Adapter struct {
	searcher  Searcher
	namespace string
	topK      int
	logger    *slog.Logger
}

// NewAdapter creates an adapter over searcher, restricted to namespace.
func NewAdapter(searcher Searcher, namespace string, topK int, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{searcher: searcher, namespace: namespace, topK: topK, logger: logger}
}

// Retrieve runs one similarity search for query, optionally filtered to a
// single ASIN, and returns the formatted evidence block. Hits keep the
// service's relevance order.
func (a *Adapter) Retrieve(ctx context.Context, query, asin string) (string, error) {
	req := &pinecone.SearchRequest{
		Query: pinecone.SearchQuery{
			Inputs: pinecone.SearchInputs{Text: query},
			TopK:   a.topK,
		},
		Fields: fieldProjection,
	}
	if asin != "" {
		req.Query.Filter = map[string]any{"asin": map[string]any{"$eq": asin}}
	}

	resp, err := a.searcher.SearchRecords(ctx, a.namespace, req)
	if err != nil {
		return "", fmt.Errorf("records search: %w", err)
	}

	a.logger.Debug("retrieval complete",
		slog.Int("hits", len(resp.Result.Hits)),
		slog.String("namespace", a.namespace))

	return FormatEvidence(resp.Result.Hits), nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FormatEvidence renders hits into the delimited evidence block: one header
// line plus truncated text per hit, in input order. Zero hits yield the
// sentinel payload, never an empty string.
func FormatEvidence(hits []pinecone.Hit) string {
	if len(hits) == 0 {
		return openDelim + Sentinel + closeDelim
	}

	snippets := make([]string, 0, len(hits))
	for i, hit := range hits {
		f := hit.Fields

		product := stringField(f, "which_product", "UNKNOWN_PRODUCT")
		asin := stringField(f, "asin", "UNKNOWN_ASIN")
		verified := "unverified"
		if boolField(f, "verified_purchase") {
			verified = "verified"
		}

		header := fmt.Sprintf("#%d [%s | ASIN %s | %s★ | %s | helpful=%s | ts=%s]",
			i+1, product, asin, ratingField(f), verified,
			numField(f, "helpful_vote"), stringField(f, "timestamp", ""))

		raw := stringField(f, "chunk_text", "")
		if raw == "" {
			raw = stringField(f, "text", "")
		}
		text := truncateRunes(whitespaceRun.ReplaceAllString(raw, " "), snippetCap)

		snippets = append(snippets, header+"\n"+text)
	}

	return openDelim + "\n" + strings.Join(snippets, hitSeparator) + "\n" + closeDelim
}

// truncateRunes caps s at n characters. Truncating on a rune boundary keeps
// multi-byte review text valid UTF-8.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func stringField(fields map[string]any, key, fallback string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return fallback
	}
	s := fmt.Sprintf("%v", v)
	if s == "" {
		return fallback
	}
	return s
}

func boolField(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

// ratingField formats the star rating to one decimal, or "NA" when absent.
func ratingField(fields map[string]any) string {
	switch v := fields["rating"].(type) {
	case float64:
		return fmt.Sprintf("%.1f", v)
	case int:
		return fmt.Sprintf("%.1f", float64(v))
	case nil:
		return "NA"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// numField renders numeric JSON values without a trailing ".0".
func numField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case float64:
		return fmt.Sprintf("%d", int64(v))
	case int:
		return fmt.Sprintf("%d", v)
	case nil:
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}
