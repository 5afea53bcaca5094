package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Writer is a Sink that flushes each event to an HTTP response as a
// Server-Sent Events data line, so a remote consumer can begin rendering
// before the stream completes.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewWriter prepares w for SSE delivery and returns the sink. It errors when
// the ResponseWriter cannot flush incrementally.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &Writer{w: w, flusher: flusher}, nil
}

// Send writes one event as a data line and flushes it.
func (s *Writer) Send(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal stream event: %w", err)
	}
	s.started = true
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Started reports whether any event has been written. Until then the
// response status is still unsent and the caller may answer with a plain
// HTTP error instead.
func (s *Writer) Started() bool { return s.started }

// Close writes the SSE end-of-stream marker.
func (s *Writer) Close() error {
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
