// Package storage defines the turn audit store: one record per request turn
// capturing its outcome. No conversation content is replayed into later
// requests; the store exists for observability, not session memory.
package storage

import (
	"context"
	"time"
)

// TurnRecord is the audit entry for one request turn.
type TurnRecord struct {
	ID      string
	Status  string // completed, denied, budget_exhausted, error
	Flagged bool
	// Steps is the number of model steps taken.
	Steps int
	// Tools lists invoked tool names in step-log order.
	Tools []string
	// PromptTokens is the estimated final prompt size.
	PromptTokens int
	Duration     time.Duration
	ErrorKind    string
	ErrorMessage string
	CreatedAt    time.Time
}

// Turn statuses.
const (
	StatusCompleted       = "completed"
	StatusDenied          = "denied"
	StatusBudgetExhausted = "budget_exhausted"
	StatusError           = "error"
)

// Store persists turn records.
type Store interface {
	// RecordTurn appends one audit record.
	RecordTurn(ctx context.Context, rec *TurnRecord) error

	// RecentTurns returns up to limit records, newest first.
	RecentTurns(ctx context.Context, limit int) ([]*TurnRecord, error)

	Close() error
}
