package prompts

import (
	"strings"
	"testing"
	"time"
)

func TestSystem_Sections(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	got := System(now)

	for _, tag := range []string{
		"<tool_calling>", "</tool_calling>",
		"<tone_style>", "</tone_style>",
		"<guardrails>", "</guardrails>",
		"<citations>", "</citations>",
		"<deployment_context>", "</deployment_context>",
		"<date_time>", "</date_time>",
	} {
		if !strings.Contains(got, tag) {
			t.Errorf("System() missing %s", tag)
		}
	}

	if !strings.Contains(got, "search_reviews") || !strings.Contains(got, "web_search") {
		t.Error("System() missing tool names")
	}
	if !strings.Contains(got, "NO_RAG_RESULTS") {
		t.Error("System() missing empty-result sentinel guidance")
	}
}

func TestSystem_DateFormatting(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	got := System(now)

	if !strings.Contains(got, "Friday, August 28, 2026 15:30 UTC") {
		t.Errorf("System() date block wrong:\n%s", got)
	}
}

func TestSystem_Deterministic(t *testing.T) {
	now := time.Now()
	if System(now) != System(now) {
		t.Error("System() not deterministic for a fixed time")
	}
}
