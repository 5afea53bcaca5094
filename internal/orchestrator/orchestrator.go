// Package orchestrator drives one request turn: moderation gate, bounded
// tool-calling loop against the generative capability, and event emission.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sellersight/sellersight/internal/domain"
	"github.com/sellersight/sellersight/internal/moderation"
	"github.com/sellersight/sellersight/internal/prompts"
	"github.com/sellersight/sellersight/internal/stream"
	"github.com/sellersight/sellersight/internal/tools"
)

// budgetNote closes the answer when the step budget runs out before the
// model finishes on its own.
const budgetNote = "\n\nI reached my tool-call budget for this turn, so the " +
	"answer above is based on the evidence gathered so far."

// Config assembles an Orchestrator. Capability, Gate and Registry are
// required.
type Config struct {
	Capability domain.Capability
	Gate       *moderation.Gate
	Registry   *tools.Registry

	// Instructions builds the system prompt for a turn; defaults to
	// prompts.System.
	Instructions func(time.Time) string

	// MaxSteps bounds the tool-calling loop; defaults to 10.
	MaxSteps int

	// SendReasoning forwards reasoning deltas to the client.
	SendReasoning bool

	// ReasoningEffort is passed through to the capability when non-empty.
	ReasoningEffort string

	Logger *slog.Logger
}

// Orchestrator runs request turns. It holds no per-request state and is safe
// for concurrent use; each Run owns its own conversation copy, verdict and
// step log.
type Orchestrator struct {
	capability      domain.Capability
	gate            *moderation.Gate
	registry        *tools.Registry
	instructions    func(time.Time) string
	maxSteps        int
	sendReasoning   bool
	reasoningEffort string
	logger          *slog.Logger
	tracer          trace.Tracer
}

// New validates cfg and creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Capability == nil {
		return nil, fmt.Errorf("capability required")
	}
	if cfg.Gate == nil {
		return nil, fmt.Errorf("moderation gate required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry required")
	}
	if cfg.Instructions == nil {
		cfg.Instructions = prompts.System
	}
	if cfg.MaxSteps < 1 {
		cfg.MaxSteps = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		tracer:          otel.Tracer("sellersight/orchestrator"),
		capability:      cfg.Capability,
		gate:            cfg.Gate,
		registry:        cfg.Registry,
		instructions:    cfg.Instructions,
		maxSteps:        cfg.MaxSteps,
		sendReasoning:   cfg.SendReasoning,
		reasoningEffort: cfg.ReasoningEffort,
		logger:          cfg.Logger,
	}, nil
}

// Result summarizes one completed (or denied) turn for logging and the audit
// store.
type Result struct {
	Flagged         bool
	Steps           int
	Invocations     []domain.ToolInvocation
	BudgetExhausted bool
}

// ToolNames lists the tools invoked, in step-log order.
func (r *Result) ToolNames() []string {
	names := make([]string, 0, len(r.Invocations))
	for _, inv := range r.Invocations {
		names = append(names, inv.Tool)
	}
	return names
}

// Run executes one request turn against em. Moderation failures abort before
// any event is emitted, so the caller may still answer with a plain HTTP
// error. Once streaming has begun, every abort path still terminates the
// stream with an error event and a finish marker.
func (o *Orchestrator) Run(ctx context.Context, turns []domain.Turn, em *stream.Emitter) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "turn")
	defer span.End()

	res := &Result{}

	verdict, err := o.gate.Check(ctx, domain.LatestUserText(turns))
	if err != nil {
		return res, domain.ErrModeration(err)
	}

	if err := em.Start(); err != nil {
		return res, err
	}

	if verdict.Flagged {
		res.Flagged = true
		denial := verdict.DenialMessage
		if denial == "" {
			denial = moderation.DefaultDenialMessage
		}
		if err := em.TextSegment(uuid.NewString(), denial); err != nil {
			return res, err
		}
		return res, em.Finish()
	}

	return o.generate(ctx, span, turns, em, res)
}

func (o *Orchestrator) generate(ctx context.Context, span trace.Span, turns []domain.Turn, em *stream.Emitter, res *Result) (*Result, error) {
	// The conversation grows as the loop appends assistant tool calls and
	// their results; the caller's slice is never mutated.
	conv := make([]domain.Turn, len(turns))
	copy(conv, turns)

	instructions := o.instructions(time.Now())
	descriptors := o.registry.Descriptors()

	for step := 1; step <= o.maxSteps; step++ {
		res.Steps = step

		events, err := o.capability.StreamStep(ctx, &domain.StepRequest{
			Instructions:    instructions,
			Turns:           conv,
			Tools:           descriptors,
			ReasoningEffort: o.reasoningEffort,
		})
		if err != nil {
			return res, o.abortStream(ctx, em, err)
		}

		text, calls, stepErr := o.consumeStep(em, events)
		if stepErr != nil {
			return res, o.abortStream(ctx, em, stepErr)
		}

		if len(calls) == 0 {
			// Final answer: all deltas already streamed.
			span.SetAttributes(attribute.Int("turn.steps", step))
			return res, em.Finish()
		}

		// Tool-call and tool-result parts live on one assistant turn so the
		// capability adapter can replay them in order.
		turn := assistantTurn(text, calls)
		for _, call := range calls {
			inv, resultPart, err := o.invoke(ctx, em, call, len(res.Invocations)+1)
			if err != nil {
				return res, err
			}
			res.Invocations = append(res.Invocations, inv)
			turn.Parts = append(turn.Parts, resultPart)
		}
		conv = append(conv, turn)
	}

	// Step budget exhausted: forced termination with whatever content the
	// model produced so far, flagged internally but not a failure.
	res.BudgetExhausted = true
	o.logger.Warn("step budget exhausted", slog.Int("max_steps", o.maxSteps))
	span.SetAttributes(attribute.Bool("turn.budget_exhausted", true))
	if err := em.TextSegment(uuid.NewString(), budgetNote); err != nil {
		return res, err
	}
	return res, em.Finish()
}

// consumeStep relays one model step's deltas to the emitter and collects any
// tool call requests. Text segments open lazily on the first delta.
func (o *Orchestrator) consumeStep(em *stream.Emitter, events <-chan domain.StepEvent) (string, []domain.ToolCallRequest, error) {
	textID := uuid.NewString()
	reasoningID := uuid.NewString()
	textOpen := false
	var text string
	var calls []domain.ToolCallRequest

	for ev := range events {
		switch ev.Type {
		case domain.StepEventText:
			if !textOpen {
				if err := em.TextStart(textID); err != nil {
					return text, nil, err
				}
				textOpen = true
			}
			if err := em.TextDelta(textID, ev.TextDelta); err != nil {
				return text, nil, err
			}
			text += ev.TextDelta
		case domain.StepEventReasoning:
			if o.sendReasoning {
				if err := em.ReasoningDelta(reasoningID, ev.ReasoningDelta); err != nil {
					return text, nil, err
				}
			}
		case domain.StepEventToolCall:
			call := *ev.ToolCall
			if call.ID == "" {
				call.ID = uuid.NewString()
			}
			calls = append(calls, call)
		case domain.StepEventError:
			return text, nil, ev.Err
		case domain.StepEventFinish:
			// FinishReason is advisory; the presence of tool calls decides
			// the next state.
		}
	}

	if textOpen {
		if err := em.TextEnd(textID); err != nil {
			return text, nil, err
		}
	}
	return text, calls, nil
}

// invoke executes one tool call. Execution failures become an error payload
// in the tool result visible to the model; they never abort the turn.
func (o *Orchestrator) invoke(ctx context.Context, em *stream.Emitter, call domain.ToolCallRequest, seq int) (domain.ToolInvocation, domain.Part, error) {
	if err := em.ToolCall(call.ID, call.Name, call.Arguments); err != nil {
		return domain.ToolInvocation{}, domain.Part{}, err
	}

	inv := domain.ToolInvocation{Seq: seq, Tool: call.Name, Input: call.Arguments}

	output, execErr := o.registry.Execute(ctx, call.Name, call.Arguments)
	if execErr != nil {
		o.logger.Warn("tool execution failed",
			slog.String("tool", call.Name),
			slog.String("error", execErr.Error()))
		inv.ErrorMsg = execErr.Error()
		output, _ = json.Marshal(map[string]string{"error": execErr.Error()})
	}
	inv.Output = output

	if err := em.ToolResult(call.ID, call.Name, output); err != nil {
		return inv, domain.Part{}, err
	}

	resultPart := domain.Part{
		Type:       domain.PartTypeToolResult,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Output:     output,
	}
	return inv, resultPart, nil
}

// abortStream terminates an in-flight stream after a capability failure so
// consumers never hang waiting for more deltas.
func (o *Orchestrator) abortStream(ctx context.Context, em *stream.Emitter, cause error) error {
	turnErr := domain.ErrGeneration(ctx, cause)
	if err := em.Error(turnErr.Message); err != nil {
		return turnErr
	}
	if err := em.Finish(); err != nil {
		return turnErr
	}
	return turnErr
}

func assistantTurn(text string, calls []domain.ToolCallRequest) domain.Turn {
	turn := domain.Turn{Role: domain.RoleAssistant}
	if text != "" {
		turn.Parts = append(turn.Parts, domain.Part{Type: domain.PartTypeText, Text: text})
	}
	for _, call := range calls {
		turn.Parts = append(turn.Parts, domain.Part{
			Type:       domain.PartTypeToolCall,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Input:      call.Arguments,
		})
	}
	return turn
}
