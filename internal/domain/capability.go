package domain

import (
	"context"
	"encoding/json"
)

// ToolDescriptor is what a step request exposes to the generative capability
// for one callable tool.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Schema is the JSON Schema for the tool input.
	Schema any `json:"schema"`
}

// StepRequest carries everything the capability needs for one model step.
type StepRequest struct {
	Instructions string
	Turns        []Turn
	Tools        []ToolDescriptor

	// ReasoningEffort is forwarded verbatim when non-empty ("low", "medium",
	// "high").
	ReasoningEffort string
}

// StepEventType discriminates events produced during one model step.
type StepEventType string

const (
	StepEventText      StepEventType = "text"
	StepEventReasoning StepEventType = "reasoning"
	StepEventToolCall  StepEventType = "tool_call"
	StepEventFinish    StepEventType = "finish"
	StepEventError     StepEventType = "error"
)

// ToolCallRequest is a complete tool invocation request assembled from the
// capability's stream.
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// StepEvent is one increment of a model step: a text or reasoning delta, a
// tool call request, a finish marker, or a terminal error.
type StepEvent struct {
	Type           StepEventType
	TextDelta      string
	ReasoningDelta string
	ToolCall       *ToolCallRequest
	FinishReason   string
	Err            error
}

// Capability is the generative model behind the orchestrator. One StreamStep
// call is one model step: the returned channel delivers deltas and ends after
// a finish or error event. The capability MUST close the channel when done
// and stop producing when ctx is cancelled.
type Capability interface {
	StreamStep(ctx context.Context, req *StepRequest) (<-chan StepEvent, error)
}
