// Package session owns durable conversation state. The store is an explicit
// dependency injected into the chat controller, so tests run against the
// in-memory implementation and production uses redis.
package session

import (
	"context"

	"github.com/shopmate/backend/models"
)

// Store is the session lifecycle contract.
//
// GetOrCreate is idempotent for a live id: calling it again without an
// intervening Clear returns the same session. An empty or unknown id mints a
// fresh opaque id. Clear removes all persisted state for the id; a cleared id
// is never reused; the next GetOrCreate("") issues a new one.
type Store interface {
	GetOrCreate(ctx context.Context, id string) (models.Session, error)
	Load(ctx context.Context, id string) ([]models.Message, error)
	Save(ctx context.Context, id string, messages []models.Message) error
	Clear(ctx context.Context, id string) error
}
