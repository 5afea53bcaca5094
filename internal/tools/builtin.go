package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sellersight/sellersight/internal/retrieval"
	"github.com/sellersight/sellersight/internal/websearch"
)

// Tool names as exposed to the model.
const (
	NameSearchReviews = "search_reviews"
	NameWebSearch     = "web_search"
)

// searchReviewsPolicy is advisory: selection is delegated to the model, so
// the policy text is strongly worded and the step budget caps the cost of a
// wrong choice.
const searchReviewsPolicy = "Search the indexed Amazon review database for " +
	"the selected ASINs. ALWAYS use this FIRST for questions about " +
	"complaints, pros/cons, sentiment, feature-level issues, or comparisons " +
	"between ASINs. Returns review snippets wrapped in <results></results>; " +
	"NO_RAG_RESULTS inside the delimiters means the search ran and found " +
	"nothing indexed."

const webSearchPolicy = "Use ONLY for general market or category context, " +
	"NOT for questions that can be answered from the Amazon review " +
	"database. Do NOT use this for specific ASIN review analysis, and never " +
	"to scrape live Amazon pages."

// NewSearchReviewsTool builds the retrieval tool over adapter.
func NewSearchReviewsTool(adapter *retrieval.Adapter) *Spec {
	return &Spec{
		Name:        NameSearchReviews,
		Description: searchReviewsPolicy,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Natural-language description of the review content to find",
				},
				"asin": map[string]any{
					"type":        "string",
					"description": "Optional ASIN to restrict the search to one product",
				},
			},
			"required":             []any{"query"},
			"additionalProperties": false,
		},
		Execute: func(ctx context.Context, input json.RawMessage) (any, error) {
			var args struct {
				Query string `json:"query"`
				ASIN  string `json:"asin"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, fmt.Errorf("decode input: %w", err)
			}
			return adapter.Retrieve(ctx, args.Query, args.ASIN)
		},
	}
}

// NewWebSearchTool builds the web search tool over svc. The underlying
// service converts transport failures into an empty result list, so this
// tool never aborts the loop.
func NewWebSearchTool(svc *websearch.Service) *Spec {
	return &Spec{
		Name:        NameWebSearch,
		Description: webSearchPolicy,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "The search query",
				},
			},
			"required":             []any{"query"},
			"additionalProperties": false,
		},
		Execute: func(ctx context.Context, input json.RawMessage) (any, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, fmt.Errorf("decode input: %w", err)
			}
			return svc.Search(ctx, args.Query), nil
		},
	}
}
