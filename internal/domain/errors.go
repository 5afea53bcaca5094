package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the category of a turn-level error. Tool execution failures
// and step-budget exhaustion are recovered inside the loop and deliberately
// have no kind here.
type ErrorKind string

const (
	// ErrorKindConfig indicates a missing or invalid configuration value.
	// Fatal at startup; never produced mid-turn.
	ErrorKindConfig ErrorKind = "config"

	// ErrorKindInvalidRequest indicates a malformed inbound request.
	ErrorKindInvalidRequest ErrorKind = "invalid_request"

	// ErrorKindModeration indicates the moderation classification call
	// failed. The turn aborts; the failure is not retried automatically.
	ErrorKindModeration ErrorKind = "moderation"

	// ErrorKindGeneration indicates the generative capability itself failed.
	ErrorKindGeneration ErrorKind = "generation"

	// ErrorKindTimeout indicates the per-request wall-clock ceiling was
	// exceeded.
	ErrorKindTimeout ErrorKind = "timeout"
)

// TurnError is a request-level failure of one conversation turn.
type TurnError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *TurnError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TurnError) Unwrap() error { return e.Err }

// HTTPStatusCode maps the error kind to the status used when the failure
// happens before any stream bytes are written.
func (e *TurnError) HTTPStatusCode() int {
	switch e.Kind {
	case ErrorKindInvalidRequest:
		return http.StatusBadRequest
	case ErrorKindTimeout:
		return http.StatusGatewayTimeout
	case ErrorKindModeration, ErrorKindGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrConfig creates a configuration error.
func ErrConfig(message string) *TurnError {
	return &TurnError{Kind: ErrorKindConfig, Message: message}
}

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *TurnError {
	return &TurnError{Kind: ErrorKindInvalidRequest, Message: message}
}

// ErrModeration wraps a moderation service failure.
func ErrModeration(err error) *TurnError {
	return &TurnError{Kind: ErrorKindModeration, Message: "moderation check failed", Err: err}
}

// ErrGeneration wraps a generative capability failure. Context expiry is
// reported as a timeout so callers see the wall-clock ceiling, not a generic
// upstream error.
func ErrGeneration(ctx context.Context, err error) *TurnError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &TurnError{Kind: ErrorKindTimeout, Message: "request time budget exceeded", Err: ctxErr}
	}
	return &TurnError{Kind: ErrorKindGeneration, Message: "generation failed", Err: err}
}

// KindOf extracts the ErrorKind from err, or "" when err carries no
// TurnError.
func KindOf(err error) ErrorKind {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
