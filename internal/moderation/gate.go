// Package moderation gates every user turn through a content classification
// check before the orchestrator may generate.
package moderation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sellersight/sellersight/internal/api/openai"
	"github.com/sellersight/sellersight/internal/domain"
)

// DefaultDenialMessage is the fixed refusal streamed when a turn is flagged.
// The orchestrator never fabricates its own wording.
const DefaultDenialMessage = "I can't help with that request. I'm focused on " +
	"Amazon review analysis and e-commerce insights. Try asking about " +
	"customer complaints, sentiment, or improvement priorities for your ASINs."

// Classifier is the external moderation capability.
type Classifier interface {
	CreateModeration(ctx context.Context, req *openai.ModerationRequest) (*openai.ModerationResponse, error)
}

// Gate classifies a single text turn as flagged or not.
type Gate struct {
	classifier Classifier
	model      string
	logger     *slog.Logger
}

// NewGate creates a gate backed by classifier. model may be empty to use the
// service default.
func NewGate(classifier Classifier, model string, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{classifier: classifier, model: model, logger: logger}
}

// Check classifies text. Blank input short-circuits to not-flagged with no
// network call. A classification failure is returned to the caller: the gate
// neither fails open nor silently passes.
func (g *Gate) Check(ctx context.Context, text string) (domain.ModerationVerdict, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ModerationVerdict{}, nil
	}

	resp, err := g.classifier.CreateModeration(ctx, &openai.ModerationRequest{
		Model: g.model,
		Input: text,
	})
	if err != nil {
		return domain.ModerationVerdict{}, err
	}

	for _, result := range resp.Results {
		if result.Flagged {
			g.logger.Info("turn flagged by moderation",
				slog.String("categories", flaggedCategories(result)))
			return domain.ModerationVerdict{
				Flagged:       true,
				DenialMessage: DefaultDenialMessage,
			}, nil
		}
	}

	return domain.ModerationVerdict{}, nil
}

func flaggedCategories(result openai.ModerationResult) string {
	var cats []string
	for name, hit := range result.Categories {
		if hit {
			cats = append(cats, name)
		}
	}
	return strings.Join(cats, ",")
}
