// Package tokens estimates prompt sizes for request logs and the turn audit
// store. Counts are tiktoken-accurate for known OpenAI models and
// character-ratio estimates otherwise; they never gate a request.
package tokens

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/sellersight/sellersight/internal/domain"
)

// fallbackCharsPerToken approximates models tiktoken has no encoding for.
const fallbackCharsPerToken = 4.0

// Counter counts tokens for one model, caching the resolved codec.
type Counter struct {
	model string

	once  sync.Once
	codec tokenizer.Codec
}

// NewCounter creates a counter for model.
func NewCounter(model string) *Counter {
	return &Counter{model: model}
}

func (c *Counter) getCodec() tokenizer.Codec {
	c.once.Do(func() {
		codec, err := tokenizer.ForModel(tokenizer.Model(c.model))
		if err == nil {
			c.codec = codec
			return
		}
		// Newer models default to the o200k vocabulary.
		if strings.HasPrefix(c.model, "gpt-") || strings.HasPrefix(c.model, "o") {
			if codec, err := tokenizer.Get(tokenizer.O200kBase); err == nil {
				c.codec = codec
			}
		}
	})
	return c.codec
}

// CountText returns the token count of text.
func (c *Counter) CountText(text string) int {
	if codec := c.getCodec(); codec != nil {
		if ids, _, err := codec.Encode(text); err == nil {
			return len(ids)
		}
	}
	return int(float64(len(text)) / fallbackCharsPerToken)
}

// EstimatePrompt approximates the prompt size of one step request: system
// instructions plus the text and tool-result content of every turn, with a
// small per-message framing overhead.
func (c *Counter) EstimatePrompt(instructions string, turns []domain.Turn) int {
	total := c.CountText(instructions)
	for _, turn := range turns {
		total += 4 // message framing
		for _, part := range turn.Parts {
			switch part.Type {
			case domain.PartTypeText:
				total += c.CountText(part.Text)
			case domain.PartTypeToolCall:
				total += c.CountText(string(part.Input))
			case domain.PartTypeToolResult:
				total += c.CountText(string(part.Output))
			}
		}
	}
	return total
}
