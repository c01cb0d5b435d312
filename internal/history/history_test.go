package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "updates.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	attempts := []Attempt{
		{StartedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), FromVersion: "1.2.0", ToVersion: "v1.3.0", Outcome: OutcomeFailed, Message: "Download incomplete", Bytes: 1000},
		{StartedAt: time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC), FromVersion: "1.2.0", ToVersion: "v1.3.0", Outcome: OutcomeInstalled, Message: "Update installed. Restarting...", Bytes: 204800},
	}
	for _, a := range attempts {
		if err := s.Record(ctx, a); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d want=2", len(got))
	}
	// Newest first.
	if got[0].Outcome != OutcomeInstalled || got[1].Outcome != OutcomeFailed {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Bytes != 204800 || got[0].ToVersion != "v1.3.0" {
		t.Fatalf("unexpected row: %+v", got[0])
	}
	if !got[0].StartedAt.Equal(attempts[1].StartedAt) {
		t.Fatalf("started_at=%v want=%v", got[0].StartedAt, attempts[1].StartedAt)
	}
}

func TestListLimit(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Record(ctx, Attempt{FromVersion: "1.0.0", ToVersion: "1.0.1", Outcome: OutcomeCancelled}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := s.List(ctx, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d want=3", len(got))
	}
}

func TestRecordDefaultsStartedAt(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, Attempt{FromVersion: "1.0.0", ToVersion: "1.1.0", Outcome: OutcomeInstalled}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	got, err := s.List(ctx, 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("List=%v,%v", got, err)
	}
	if got[0].StartedAt.IsZero() {
		t.Fatalf("StartedAt should default to the record time")
	}
}
