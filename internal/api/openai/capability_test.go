package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sellersight/sellersight/internal/domain"
)

// sseServer streams the given data payloads as SSE lines, then [DONE]. It
// also captures the decoded request body.
func sseServer(t *testing.T, payloads []string, captured *ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func collectEvents(t *testing.T, events <-chan domain.StepEvent) []domain.StepEvent {
	t.Helper()
	var out []domain.StepEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestStreamStep_TextDeltas(t *testing.T) {
	var captured ChatCompletionRequest
	srv := sseServer(t, []string{
		`{"choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
	}, &captured)
	defer srv.Close()

	capability := NewCapability(NewClient("test-key", WithBaseURL(srv.URL)), "gpt-5-mini")
	events, err := capability.StreamStep(context.Background(), &domain.StepRequest{
		Instructions: "be brief",
		Turns:        []domain.Turn{domain.TextTurn(domain.RoleUser, "hi")},
	})
	if err != nil {
		t.Fatalf("StreamStep() error: %v", err)
	}

	got := collectEvents(t, events)
	var text string
	for _, ev := range got {
		if ev.Type == domain.StepEventText {
			text += ev.TextDelta
		}
	}
	if text != "Hello" {
		t.Errorf("text = %q, want %q", text, "Hello")
	}
	last := got[len(got)-1]
	if last.Type != domain.StepEventFinish || last.FinishReason != "stop" {
		t.Errorf("last event = %+v, want finish/stop", last)
	}

	// Request shape: streaming on, parallel tool calls off.
	if !captured.Stream {
		t.Error("request did not set stream")
	}
	if captured.ParallelToolCalls == nil || *captured.ParallelToolCalls {
		t.Error("parallel_tool_calls not disabled")
	}
	if captured.Messages[0].Role != "system" || captured.Messages[0].Content != "be brief" {
		t.Errorf("system message = %+v", captured.Messages[0])
	}
}

func TestStreamStep_ToolCallAccumulation(t *testing.T) {
	// Arguments arrive fragmented across chunks; the call is delivered whole.
	srv := sseServer(t, []string{
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"search_reviews","arguments":""}}]},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"query\":"}}]},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"battery\"}"}}]},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	}, nil)
	defer srv.Close()

	capability := NewCapability(NewClient("test-key", WithBaseURL(srv.URL)), "gpt-5-mini")
	events, err := capability.StreamStep(context.Background(), &domain.StepRequest{
		Turns: []domain.Turn{domain.TextTurn(domain.RoleUser, "analyze")},
	})
	if err != nil {
		t.Fatalf("StreamStep() error: %v", err)
	}

	got := collectEvents(t, events)
	var call *domain.ToolCallRequest
	for _, ev := range got {
		if ev.Type == domain.StepEventToolCall {
			if call != nil {
				t.Fatal("more than one tool call emitted")
			}
			call = ev.ToolCall
		}
	}
	if call == nil {
		t.Fatal("no tool call emitted")
	}
	if call.ID != "call_1" || call.Name != "search_reviews" {
		t.Errorf("call = %+v", call)
	}
	if string(call.Arguments) != `{"query":"battery"}` {
		t.Errorf("arguments = %s, want reassembled JSON", call.Arguments)
	}
	if got[len(got)-1].Type != domain.StepEventFinish {
		t.Error("missing finish event after tool call")
	}
}

func TestStreamStep_EmptyArgumentsDefault(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"web_search"}}]},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	}, nil)
	defer srv.Close()

	capability := NewCapability(NewClient("k", WithBaseURL(srv.URL)), "gpt-5-mini")
	events, err := capability.StreamStep(context.Background(), &domain.StepRequest{
		Turns: []domain.Turn{domain.TextTurn(domain.RoleUser, "x")},
	})
	if err != nil {
		t.Fatalf("StreamStep() error: %v", err)
	}

	for _, ev := range collectEvents(t, events) {
		if ev.Type == domain.StepEventToolCall && string(ev.ToolCall.Arguments) != "{}" {
			t.Errorf("arguments = %s, want {}", ev.ToolCall.Arguments)
		}
	}
}

func TestStreamStep_ReasoningDeltas(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"index":0,"delta":{"reasoning_content":"weighing evidence"},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{"content":"done"},"finish_reason":"stop"}]}`,
	}, nil)
	defer srv.Close()

	capability := NewCapability(NewClient("k", WithBaseURL(srv.URL)), "gpt-5-mini")
	events, err := capability.StreamStep(context.Background(), &domain.StepRequest{
		Turns: []domain.Turn{domain.TextTurn(domain.RoleUser, "x")},
	})
	if err != nil {
		t.Fatalf("StreamStep() error: %v", err)
	}

	var reasoning string
	for _, ev := range collectEvents(t, events) {
		if ev.Type == domain.StepEventReasoning {
			reasoning += ev.ReasoningDelta
		}
	}
	if reasoning != "weighing evidence" {
		t.Errorf("reasoning = %q, want %q", reasoning, "weighing evidence")
	}
}

func TestStreamStep_CancelReleasesStream(t *testing.T) {
	// A long stream whose consumer walks away after one event. Cancellation
	// must close the channel rather than leave the forwarding goroutine
	// blocked on a send nobody will receive.
	payloads := make([]string, 50)
	for i := range payloads {
		payloads[i] = `{"choices":[{"index":0,"delta":{"content":"chunk"},"finish_reason":null}]}`
	}
	srv := sseServer(t, payloads, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	capability := NewCapability(NewClient("k", WithBaseURL(srv.URL)), "gpt-5-mini")
	events, err := capability.StreamStep(ctx, &domain.StepRequest{
		Turns: []domain.Turn{domain.TextTurn(domain.RoleUser, "x")},
	})
	if err != nil {
		t.Fatalf("StreamStep() error: %v", err)
	}

	<-events
	cancel()

	// Give the forwarder time to observe the cancellation while no receiver
	// exists; only then look at the channel.
	time.Sleep(100 * time.Millisecond)

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("stream kept producing after the consumer cancelled")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event channel not closed after cancellation")
	}
}

func TestStreamStep_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	capability := NewCapability(NewClient("k", WithBaseURL(srv.URL)), "gpt-5-mini")
	_, err := capability.StreamStep(context.Background(), &domain.StepRequest{
		Turns: []domain.Turn{domain.TextTurn(domain.RoleUser, "x")},
	})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Code != "rate_limit_exceeded" {
		t.Errorf("code = %q, want rate_limit_exceeded", apiErr.Code)
	}
}

func TestBuildMessages_ToolReplay(t *testing.T) {
	turns := []domain.Turn{
		domain.TextTurn(domain.RoleUser, "analyze battery complaints"),
		{
			Role: domain.RoleAssistant,
			Parts: []domain.Part{
				{Type: domain.PartTypeToolCall, ToolCallID: "call_1", ToolName: "search_reviews",
					Input: json.RawMessage(`{"query":"battery"}`)},
				{Type: domain.PartTypeToolResult, ToolCallID: "call_1", ToolName: "search_reviews",
					Output: json.RawMessage(`"<results>...</results>"`)},
				{Type: domain.PartTypeReasoning, Text: "never replayed"},
			},
		},
	}

	msgs := buildMessages("sys", turns)

	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4 (system, user, assistant, tool)", len(msgs))
	}
	if msgs[0].Role != "system" {
		t.Errorf("msgs[0].Role = %s, want system", msgs[0].Role)
	}
	if msgs[1].Role != "user" {
		t.Errorf("msgs[1].Role = %s, want user", msgs[1].Role)
	}

	assistant := msgs[2]
	if assistant.Role != "assistant" || len(assistant.ToolCalls) != 1 {
		t.Fatalf("assistant message = %+v", assistant)
	}
	if assistant.ToolCalls[0].ID != "call_1" || assistant.ToolCalls[0].Function.Name != "search_reviews" {
		t.Errorf("tool call = %+v", assistant.ToolCalls[0])
	}

	tool := msgs[3]
	if tool.Role != "tool" || tool.ToolCallID != "call_1" {
		t.Errorf("tool message = %+v", tool)
	}

	for _, m := range msgs {
		if m.Content == "never replayed" {
			t.Error("reasoning part leaked into upstream messages")
		}
	}
}

func TestBuildTools(t *testing.T) {
	if buildTools(nil) != nil {
		t.Error("buildTools(nil) != nil")
	}

	tools := buildTools([]domain.ToolDescriptor{
		{Name: "search_reviews", Description: "d", Schema: map[string]any{"type": "object"}},
	})
	if len(tools) != 1 || tools[0].Type != "function" || tools[0].Function.Name != "search_reviews" {
		t.Errorf("tools = %+v", tools)
	}
}
