package session

import (
	"context"

	"github.com/google/uuid"
)

// Store persists sessions. Get returns ErrNotFound for unknown IDs.
type Store[Data any] interface {
	Get(ctx context.Context, id uuid.UUID) (*Session[Data], error)
	Save(ctx context.Context, session *Session[Data]) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes expired sessions and reports how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
