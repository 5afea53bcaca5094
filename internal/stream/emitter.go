package stream

import "fmt"

type segmentState int

const (
	segmentUnknown segmentState = iota
	segmentOpen
	segmentClosed
)

// Emitter validates and forwards stream events to a sink. It enforces the
// nesting invariant with a per-id state tracker rather than trusting callers:
// every text segment id must see start before deltas before exactly one end,
// ids are never reused, and finish is terminal and unique. Emitters are
// request-scoped and not safe for concurrent use; a request owns exactly one.
type Emitter struct {
	sink      Sink
	started   bool
	finished  bool
	segments  map[string]segmentState
	openOrder []string
}

// NewEmitter creates an emitter writing to sink.
func NewEmitter(sink Sink) *Emitter {
	return &Emitter{
		sink:     sink,
		segments: make(map[string]segmentState),
	}
}

func (e *Emitter) send(ev Event) error {
	if e.finished {
		return fmt.Errorf("stream already finished: cannot emit %s", ev.Type)
	}
	return e.sink.Send(ev)
}

// Start emits the stream-opening event. It must be called exactly once,
// before any other event.
func (e *Emitter) Start() error {
	if e.started {
		return fmt.Errorf("stream already started")
	}
	e.started = true
	return e.send(Event{Type: EventStart})
}

// TextStart opens a text segment with the given id.
func (e *Emitter) TextStart(id string) error {
	if err := e.requireStarted(); err != nil {
		return err
	}
	if e.segments[id] != segmentUnknown {
		return fmt.Errorf("text segment %q already used", id)
	}
	e.segments[id] = segmentOpen
	e.openOrder = append(e.openOrder, id)
	return e.send(Event{Type: EventTextStart, ID: id})
}

// TextDelta appends text to an open segment.
func (e *Emitter) TextDelta(id, delta string) error {
	if e.segments[id] != segmentOpen {
		return fmt.Errorf("text segment %q is not open", id)
	}
	return e.send(Event{Type: EventTextDelta, ID: id, Delta: delta})
}

// TextEnd closes an open text segment.
func (e *Emitter) TextEnd(id string) error {
	if e.segments[id] != segmentOpen {
		return fmt.Errorf("text segment %q is not open", id)
	}
	e.segments[id] = segmentClosed
	e.removeOpen(id)
	return e.send(Event{Type: EventTextEnd, ID: id})
}

// TextSegment emits a complete start/delta/end triple for text. Used for
// single-shot segments such as the denial message.
func (e *Emitter) TextSegment(id, text string) error {
	if err := e.TextStart(id); err != nil {
		return err
	}
	if err := e.TextDelta(id, text); err != nil {
		return err
	}
	return e.TextEnd(id)
}

// ReasoningDelta emits a reasoning increment. Reasoning segments carry only
// deltas; they are tagged distinctly so consumers can hide them.
func (e *Emitter) ReasoningDelta(id, delta string) error {
	if err := e.requireStarted(); err != nil {
		return err
	}
	return e.send(Event{Type: EventReasoningDelta, ID: id, Delta: delta})
}

// ToolCall emits a tool invocation request event.
func (e *Emitter) ToolCall(id, toolName string, input []byte) error {
	if err := e.requireStarted(); err != nil {
		return err
	}
	return e.send(Event{Type: EventToolCall, ID: id, ToolName: toolName, Input: input})
}

// ToolResult emits the result of a tool invocation.
func (e *Emitter) ToolResult(id, toolName string, output []byte) error {
	if err := e.requireStarted(); err != nil {
		return err
	}
	return e.send(Event{Type: EventToolResult, ID: id, ToolName: toolName, Output: output})
}

// Error emits an error event. The stream stays open: callers must still call
// Finish so consumers never wait on a stream with no terminal marker.
func (e *Emitter) Error(message string) error {
	if err := e.requireStarted(); err != nil {
		return err
	}
	return e.send(Event{Type: EventError, ErrorText: message})
}

// Finish closes any text segments left open, emits the terminal finish event
// and seals the emitter. Exactly one Finish succeeds per stream.
func (e *Emitter) Finish() error {
	if err := e.requireStarted(); err != nil {
		return err
	}
	for len(e.openOrder) > 0 {
		if err := e.TextEnd(e.openOrder[0]); err != nil {
			return err
		}
	}
	if err := e.send(Event{Type: EventFinish}); err != nil {
		return err
	}
	e.finished = true
	return nil
}

// Finished reports whether the terminal finish event has been emitted.
func (e *Emitter) Finished() bool { return e.finished }

func (e *Emitter) requireStarted() error {
	if !e.started {
		return fmt.Errorf("stream not started")
	}
	if e.finished {
		return fmt.Errorf("stream already finished")
	}
	return nil
}

func (e *Emitter) removeOpen(id string) {
	for i, open := range e.openOrder {
		if open == id {
			e.openOrder = append(e.openOrder[:i], e.openOrder[i+1:]...)
			return
		}
	}
}
