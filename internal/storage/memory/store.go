// Package memory provides an in-memory turn audit store for tests and for
// running without a database file.
package memory

import (
	"context"
	"sync"

	"github.com/sellersight/sellersight/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu      sync.RWMutex
	records []*storage.TurnRecord
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// RecordTurn appends one audit record.
func (s *Store) RecordTurn(_ context.Context, rec *storage.TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records = append(s.records, &clone)
	return nil
}

// RecentTurns returns up to limit records, newest first.
func (s *Store) RecentTurns(_ context.Context, limit int) ([]*storage.TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*storage.TurnRecord, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(out) < n; i-- {
		clone := *s.records[i]
		out = append(out, &clone)
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
