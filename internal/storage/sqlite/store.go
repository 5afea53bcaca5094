// Package sqlite is the SQLite implementation of the turn audit store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sellersight/sellersight/internal/storage"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			flagged INTEGER NOT NULL DEFAULT 0,
			steps INTEGER NOT NULL DEFAULT 0,
			tools TEXT,
			prompt_tokens INTEGER,
			duration_ns INTEGER,
			error_kind TEXT,
			error_message TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_status ON turns(status)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordTurn appends one audit record.
func (s *Store) RecordTurn(ctx context.Context, rec *storage.TurnRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, status, flagged, steps, tools, prompt_tokens,
			duration_ns, error_kind, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Status, boolToInt(rec.Flagged), rec.Steps,
		strings.Join(rec.Tools, ","), rec.PromptTokens,
		rec.Duration.Nanoseconds(), rec.ErrorKind, rec.ErrorMessage,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert turn record: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit records, newest first.
func (s *Store) RecentTurns(ctx context.Context, limit int) ([]*storage.TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, flagged, steps, tools, prompt_tokens,
			duration_ns, error_kind, error_message, created_at
		 FROM turns ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var records []*storage.TurnRecord
	for rows.Next() {
		var rec storage.TurnRecord
		var flagged int
		var tools string
		var durationNS int64
		if err := rows.Scan(&rec.ID, &rec.Status, &flagged, &rec.Steps,
			&tools, &rec.PromptTokens, &durationNS,
			&rec.ErrorKind, &rec.ErrorMessage, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn record: %w", err)
		}
		rec.Flagged = flagged != 0
		rec.Duration = time.Duration(durationNS)
		if tools != "" {
			rec.Tools = strings.Split(tools, ",")
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
