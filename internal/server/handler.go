package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sellersight/sellersight/internal/domain"
	"github.com/sellersight/sellersight/internal/orchestrator"
	"github.com/sellersight/sellersight/internal/prompts"
	"github.com/sellersight/sellersight/internal/storage"
	"github.com/sellersight/sellersight/internal/stream"
	"github.com/sellersight/sellersight/internal/tokens"
)

// ChatRequest is the inbound request body: the whole conversation, supplied
// per request.
type ChatRequest struct {
	Messages []domain.Turn `json:"messages"`
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	orch    *orchestrator.Orchestrator
	store   storage.Store // nil disables the audit record
	counter *tokens.Counter
	logger  *slog.Logger
}

// NewChatHandler creates the chat handler. store and counter may be nil.
func NewChatHandler(orch *orchestrator.Orchestrator, store storage.Store, counter *tokens.Counter, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{orch: orch, store: store, counter: counter, logger: logger}
}

// HandleChat runs one request turn and streams the response. Failures before
// the first stream event yield a plain JSON error; once streaming has begun
// the orchestrator guarantees an error event plus finish instead.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTurnError(w, domain.ErrInvalidRequest("malformed request body"))
		return
	}
	if len(req.Messages) == 0 {
		writeTurnError(w, domain.ErrInvalidRequest("messages must not be empty"))
		return
	}

	writer, err := stream.NewWriter(w)
	if err != nil {
		writeTurnError(w, domain.ErrInvalidRequest(err.Error()))
		return
	}
	em := stream.NewEmitter(writer)

	result, runErr := h.orch.Run(r.Context(), req.Messages, em)
	if runErr != nil {
		AddError(r.Context(), runErr)
		if !em.Finished() && !writer.Started() {
			// Nothing streamed yet: answer with a request-level error.
			h.record(r, req.Messages, result, runErr, time.Since(start))
			writeTurnError(w, runErr)
			return
		}
	}
	if writer.Started() {
		if err := writer.Close(); err != nil {
			h.logger.Warn("failed to close stream", slog.String("error", err.Error()))
		}
	}

	AddLogField(r.Context(), "steps", strconv.Itoa(result.Steps))
	AddLogField(r.Context(), "tool_calls", strconv.Itoa(len(result.Invocations)))
	h.record(r, req.Messages, result, runErr, time.Since(start))
}

func (h *ChatHandler) record(r *http.Request, turns []domain.Turn, result *orchestrator.Result, runErr error, duration time.Duration) {
	if h.store == nil || result == nil {
		return
	}

	rec := &storage.TurnRecord{
		ID:        uuid.NewString(),
		Status:    storage.StatusCompleted,
		Flagged:   result.Flagged,
		Steps:     result.Steps,
		Tools:     result.ToolNames(),
		Duration:  duration,
		CreatedAt: time.Now().UTC(),
	}
	switch {
	case runErr != nil:
		rec.Status = storage.StatusError
		rec.ErrorKind = string(domain.KindOf(runErr))
		rec.ErrorMessage = runErr.Error()
	case result.Flagged:
		rec.Status = storage.StatusDenied
	case result.BudgetExhausted:
		rec.Status = storage.StatusBudgetExhausted
	}
	if h.counter != nil {
		rec.PromptTokens = h.counter.EstimatePrompt(prompts.System(time.Now()), turns)
	}

	// The request context is already expired on the timeout path and
	// cancelled on client disconnect; the audit write must still land.
	if err := h.store.RecordTurn(context.WithoutCancel(r.Context()), rec); err != nil {
		h.logger.Warn("failed to record turn", slog.String("error", err.Error()))
	}
}

func writeTurnError(w http.ResponseWriter, err error) {
	te, ok := err.(*domain.TurnError)
	status := http.StatusInternalServerError
	kind := domain.ErrorKind("internal")
	msg := err.Error()
	if ok {
		status = te.HTTPStatusCode()
		kind = te.Kind
		msg = te.Message
	}

	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"kind":    kind,
			"message": msg,
		},
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
