// Package domain holds the canonical conversation and error types shared by
// the orchestrator, the tool registry, and the HTTP surface.
package domain

import (
	"encoding/json"
	"strings"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType discriminates the variants of a turn part.
type PartType string

const (
	PartTypeText       PartType = "text"
	PartTypeToolCall   PartType = "tool-call"
	PartTypeToolResult PartType = "tool-result"
	PartTypeReasoning  PartType = "reasoning"
)

// Part is one tagged element of a turn. Exactly the fields for its Type are
// populated; the rest stay zero.
type Part struct {
	Type PartType `json:"type"`

	// Text for text and reasoning parts.
	Text string `json:"text,omitempty"`

	// ToolCallID links tool-call and tool-result parts.
	ToolCallID string `json:"toolCallId,omitempty"`

	// ToolName for tool-call and tool-result parts.
	ToolName string `json:"toolName,omitempty"`

	// Input holds the JSON arguments of a tool-call part.
	Input json.RawMessage `json:"input,omitempty"`

	// Output holds the JSON result of a tool-result part.
	Output json.RawMessage `json:"output,omitempty"`
}

// Turn is one message in a conversation: a role plus an ordered sequence of
// parts. Conversations are ordered slices of turns supplied whole by the
// caller per request; the core never persists them.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// TextTurn builds a turn containing a single text part.
func TextTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Type: PartTypeText, Text: text}}}
}

// TextContent concatenates the text parts of the turn, ignoring tool and
// reasoning parts.
func (t Turn) TextContent() string {
	var b strings.Builder
	for _, p := range t.Parts {
		if p.Type == PartTypeText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// LatestUserText returns the concatenated text of the trailing user turn, or
// "" when the conversation ends with no user turn. Only this text is
// moderated per request.
func LatestUserText(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i].TextContent()
		}
		// A trailing assistant/system turn means there is nothing new to
		// moderate.
		return ""
	}
	return ""
}

// ModerationVerdict is the outcome of classifying one user turn. Created per
// invocation and never persisted.
type ModerationVerdict struct {
	Flagged       bool   `json:"flagged"`
	DenialMessage string `json:"denialMessage,omitempty"`
}

// ToolInvocation records one executed tool call in the per-request step log.
// Entries are appended in execution order and never mutated afterwards.
type ToolInvocation struct {
	// Seq is the 1-based position in the step log.
	Seq      int             `json:"seq"`
	Tool     string          `json:"tool"`
	Input    json.RawMessage `json:"input"`
	Output   json.RawMessage `json:"output,omitempty"`
	ErrorMsg string          `json:"error,omitempty"`
}
