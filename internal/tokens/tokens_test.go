package tokens

import (
	"encoding/json"
	"testing"

	"github.com/sellersight/sellersight/internal/domain"
)

func TestCountText_KnownModel(t *testing.T) {
	counter := NewCounter("gpt-4o")

	got := counter.CountText("Hello, world")
	if got < 1 || got > 10 {
		t.Errorf("CountText() = %d, want a small positive count", got)
	}
	if counter.CountText("") != 0 {
		t.Error("CountText(\"\") != 0")
	}
}

func TestCountText_UnknownModelFallsBack(t *testing.T) {
	counter := NewCounter("some-custom-model")

	// 40 characters at ~4 chars/token.
	text := "0123456789012345678901234567890123456789"
	if got := counter.CountText(text); got != 10 {
		t.Errorf("CountText() = %d, want 10 via character estimate", got)
	}
}

func TestCountText_UnknownGPTPrefixUsesO200k(t *testing.T) {
	// A model name tiktoken doesn't know but with the gpt- prefix still gets
	// a real vocabulary, not the character estimate.
	counter := NewCounter("gpt-5-mini")
	if got := counter.CountText("Hello, world"); got < 1 || got > 10 {
		t.Errorf("CountText() = %d, want a small positive count", got)
	}
}

func TestEstimatePrompt(t *testing.T) {
	counter := NewCounter("some-custom-model")

	turns := []domain.Turn{
		domain.TextTurn(domain.RoleUser, "analyze battery complaints please"),
		{
			Role: domain.RoleAssistant,
			Parts: []domain.Part{
				{Type: domain.PartTypeToolCall, ToolCallID: "c1", ToolName: "search_reviews",
					Input: json.RawMessage(`{"query":"battery"}`)},
				{Type: domain.PartTypeToolResult, ToolCallID: "c1", ToolName: "search_reviews",
					Output: json.RawMessage(`"<results>NO_RAG_RESULTS</results>"`)},
			},
		},
	}

	got := counter.EstimatePrompt("You are an assistant.", turns)

	// Instructions + 2x framing + part contents must all contribute.
	withoutTurns := counter.EstimatePrompt("You are an assistant.", nil)
	if got <= withoutTurns+8 {
		t.Errorf("EstimatePrompt() = %d, want more than instructions plus framing (%d)", got, withoutTurns+8)
	}

	// Deterministic for identical input.
	if again := counter.EstimatePrompt("You are an assistant.", turns); again != got {
		t.Errorf("EstimatePrompt() not deterministic: %d then %d", got, again)
	}
}
