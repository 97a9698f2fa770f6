package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopmate/backend/models"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	t.Parallel()
	s := NewStore(0)
	ctx := context.Background()

	first, err := s.GetOrCreate(ctx, "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first.ID == "" {
		t.Fatal("new session must get an opaque id")
	}

	again, err := s.GetOrCreate(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetOrCreate existing: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("live id must be reused: %s vs %s", again.ID, first.ID)
	}
}

func TestClearedIDNeverReused(t *testing.T) {
	t.Parallel()
	s := NewStore(0)
	ctx := context.Background()

	sess, _ := s.GetOrCreate(ctx, "")
	if err := s.Clear(ctx, sess.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	fresh, _ := s.GetOrCreate(ctx, sess.ID)
	if fresh.ID == sess.ID {
		t.Fatal("cleared id must not come back")
	}
	if _, err := s.Load(ctx, sess.ID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("Load cleared id: want ErrSessionNotFound, got %v", err)
	}
}

func TestSaveAndLoadCopies(t *testing.T) {
	t.Parallel()
	s := NewStore(0)
	ctx := context.Background()
	sess, _ := s.GetOrCreate(ctx, "")

	msgs := []models.Message{{ID: "1", Role: models.RoleUser, Text: "hello"}}
	if err := s.Save(ctx, sess.ID, msgs); err != nil {
		t.Fatalf("Save: %v", err)
	}
	msgs[0].Text = "mutated after save"

	got, err := s.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Text != "hello" {
		t.Fatalf("stored messages must not alias the caller's slice: %+v", got)
	}

	got[0].Text = "mutated after load"
	got2, _ := s.Load(ctx, sess.ID)
	if got2[0].Text != "hello" {
		t.Fatal("loaded messages must not alias the stored slice")
	}
}

func TestSaveUnknownID(t *testing.T) {
	t.Parallel()
	s := NewStore(0)
	err := s.Save(context.Background(), "ghost", nil)
	if !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func TestExpiryAndSweep(t *testing.T) {
	t.Parallel()
	s := NewStore(time.Minute)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	stale, _ := s.GetOrCreate(ctx, "")
	clock = clock.Add(30 * time.Second)
	live, _ := s.GetOrCreate(ctx, "")
	// Touch keeps the live session's deadline moving.
	if err := s.Save(ctx, live.ID, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	clock = clock.Add(45 * time.Second) // stale is now 75s old, live 45s

	if _, err := s.Load(ctx, stale.ID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("expired session should be gone to readers, got %v", err)
	}
	if _, err := s.Load(ctx, live.ID); err != nil {
		t.Fatalf("live session should survive: %v", err)
	}

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("Len after sweep = %d, want 1", s.Len())
	}
}
