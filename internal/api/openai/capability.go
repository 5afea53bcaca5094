package openai

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/sellersight/sellersight/internal/domain"
)

// Capability adapts the chat completions client to the orchestrator's
// generative capability contract. Parallel tool calls are disabled so each
// model step requests at most one invocation and the step log stays strictly
// ordered.
type Capability struct {
	client *Client
	model  string
}

var _ domain.Capability = (*Capability)(nil)

// NewCapability wraps client for the given model.
func NewCapability(client *Client, model string) *Capability {
	return &Capability{client: client, model: model}
}

// StreamStep runs one model step. Text and reasoning deltas are forwarded
// live; tool call fragments are accumulated and delivered complete once the
// upstream stream ends.
func (c *Capability) StreamStep(ctx context.Context, req *domain.StepRequest) (<-chan domain.StepEvent, error) {
	parallel := false
	chatReq := &ChatCompletionRequest{
		Model:             c.model,
		Messages:          buildMessages(req.Instructions, req.Turns),
		Tools:             buildTools(req.Tools),
		ParallelToolCalls: &parallel,
		ReasoningEffort:   req.ReasoningEffort,
	}
	if len(chatReq.Tools) > 0 {
		chatReq.ToolChoice = "auto"
	}

	results, err := c.client.StreamChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.StepEvent)
	go func() {
		defer close(out)

		// Every send races cancellation: a consumer that stops reading must
		// not pin this goroutine past the request lifetime.
		send := func(ev domain.StepEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		calls := make(map[int]*toolCallAccumulator)
		finishReason := ""

		for res := range results {
			if res.Err != nil {
				send(domain.StepEvent{Type: domain.StepEventError, Err: res.Err})
				return
			}
			for _, choice := range res.Chunk.Choices {
				if choice.Delta.Content != "" {
					if !send(domain.StepEvent{Type: domain.StepEventText, TextDelta: choice.Delta.Content}) {
						return
					}
				}
				if choice.Delta.ReasoningContent != "" {
					if !send(domain.StepEvent{Type: domain.StepEventReasoning, ReasoningDelta: choice.Delta.ReasoningContent}) {
						return
					}
				}
				for _, tc := range choice.Delta.ToolCalls {
					acc, ok := calls[tc.Index]
					if !ok {
						acc = &toolCallAccumulator{}
						calls[tc.Index] = acc
					}
					if tc.ID != "" {
						acc.id = tc.ID
					}
					if tc.Function != nil {
						if tc.Function.Name != "" {
							acc.name = tc.Function.Name
						}
						acc.arguments += tc.Function.Arguments
					}
				}
				if choice.FinishReason != nil && *choice.FinishReason != "" {
					finishReason = *choice.FinishReason
				}
			}
		}

		for _, acc := range orderedCalls(calls) {
			args := acc.arguments
			if args == "" {
				args = "{}"
			}
			if !send(domain.StepEvent{
				Type: domain.StepEventToolCall,
				ToolCall: &domain.ToolCallRequest{
					ID:        acc.id,
					Name:      acc.name,
					Arguments: json.RawMessage(args),
				},
			}) {
				return
			}
		}

		send(domain.StepEvent{Type: domain.StepEventFinish, FinishReason: finishReason})
	}()

	return out, nil
}

type toolCallAccumulator struct {
	id        string
	name      string
	arguments string
}

func orderedCalls(calls map[int]*toolCallAccumulator) []*toolCallAccumulator {
	indexes := make([]int, 0, len(calls))
	for i := range calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	out := make([]*toolCallAccumulator, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, calls[i])
	}
	return out
}

// buildMessages flattens the conversation into chat completion messages.
// Tool-call and tool-result parts become the assistant tool_calls field and
// role "tool" messages the API expects.
func buildMessages(instructions string, turns []domain.Turn) []ChatCompletionMessage {
	msgs := make([]ChatCompletionMessage, 0, len(turns)+1)
	if instructions != "" {
		msgs = append(msgs, ChatCompletionMessage{Role: "system", Content: instructions})
	}

	for _, turn := range turns {
		var text string
		var toolCalls []ToolCall
		var toolResults []ChatCompletionMessage

		for _, part := range turn.Parts {
			switch part.Type {
			case domain.PartTypeText:
				text += part.Text
			case domain.PartTypeToolCall:
				toolCalls = append(toolCalls, ToolCall{
					ID:   part.ToolCallID,
					Type: "function",
					Function: FunctionCall{
						Name:      part.ToolName,
						Arguments: string(part.Input),
					},
				})
			case domain.PartTypeToolResult:
				toolResults = append(toolResults, ChatCompletionMessage{
					Role:       "tool",
					Content:    string(part.Output),
					ToolCallID: part.ToolCallID,
				})
			case domain.PartTypeReasoning:
				// Reasoning parts are display-only; never replayed upstream.
			}
		}

		if text != "" || len(toolCalls) > 0 {
			msgs = append(msgs, ChatCompletionMessage{
				Role:      string(turn.Role),
				Content:   text,
				ToolCalls: toolCalls,
			})
		}
		msgs = append(msgs, toolResults...)
	}

	return msgs
}

func buildTools(descriptors []domain.ToolDescriptor) []Tool {
	if len(descriptors) == 0 {
		return nil
	}
	tools := make([]Tool, 0, len(descriptors))
	for _, d := range descriptors {
		tools = append(tools, Tool{
			Type: "function",
			Function: FunctionTool{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Schema,
			},
		})
	}
	return tools
}
