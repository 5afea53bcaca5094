// Package stream defines the typed event stream a request turn produces and
// the emitter that enforces its ordering invariants.
package stream

import "encoding/json"

// EventType is the closed set of stream event variants.
type EventType string

const (
	EventStart          EventType = "start"
	EventTextStart      EventType = "text-start"
	EventTextDelta      EventType = "text-delta"
	EventTextEnd        EventType = "text-end"
	EventToolCall       EventType = "tool-call"
	EventToolResult     EventType = "tool-result"
	EventReasoningDelta EventType = "reasoning-delta"
	EventFinish         EventType = "finish"
	EventError          EventType = "error"
)

// Event is one element of the response stream. ID is stream-scoped: all
// events for one text segment, reasoning segment, or tool invocation share
// an ID.
type Event struct {
	Type EventType `json:"type"`
	ID   string    `json:"id,omitempty"`

	// Delta carries incremental text for text-delta and reasoning-delta.
	Delta string `json:"delta,omitempty"`

	// ToolName for tool-call and tool-result events.
	ToolName string `json:"toolName,omitempty"`

	// Input holds the JSON arguments of a tool-call event.
	Input json.RawMessage `json:"input,omitempty"`

	// Output holds the JSON result of a tool-result event.
	Output json.RawMessage `json:"output,omitempty"`

	// ErrorText for error events.
	ErrorText string `json:"errorText,omitempty"`
}

// Sink consumes emitted events. Implementations must deliver events in call
// order; Send returning an error stops the emitter.
type Sink interface {
	Send(Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event) error

func (f SinkFunc) Send(ev Event) error { return f(ev) }
