package memory

import (
	"context"
	"testing"
	"time"

	"github.com/sellersight/sellersight/internal/storage"
)

func TestRecordAndRecentTurns(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "t3"} {
		err := store.RecordTurn(ctx, &storage.TurnRecord{
			ID:        id,
			Status:    storage.StatusCompleted,
			Steps:     2,
			Tools:     []string{"search_reviews"},
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("RecordTurn(%s) error: %v", id, err)
		}
	}

	records, err := store.RecentTurns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentTurns() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Newest first.
	if records[0].ID != "t3" || records[1].ID != "t2" {
		t.Errorf("order = [%s %s], want [t3 t2]", records[0].ID, records[1].ID)
	}
}

func TestRecentTurns_NoLimit(t *testing.T) {
	store := New()
	ctx := context.Background()
	store.RecordTurn(ctx, &storage.TurnRecord{ID: "a"})
	store.RecordTurn(ctx, &storage.TurnRecord{ID: "b"})

	records, err := store.RecentTurns(ctx, 0)
	if err != nil {
		t.Fatalf("RecentTurns() error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestRecordTurn_Clones(t *testing.T) {
	store := New()
	ctx := context.Background()

	rec := &storage.TurnRecord{ID: "orig", Status: storage.StatusCompleted}
	store.RecordTurn(ctx, rec)
	rec.Status = storage.StatusError

	records, _ := store.RecentTurns(ctx, 1)
	if records[0].Status != storage.StatusCompleted {
		t.Errorf("stored record mutated by caller: status = %s", records[0].Status)
	}
}
