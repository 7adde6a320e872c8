package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/pkg/keylock"
)

// Manager coordinates the session lifecycle over a Store.
// Update serializes read-modify-write cycles per session ID.
type Manager[Data any] struct {
	store         Store[Data]
	ttl           time.Duration
	touchInterval time.Duration
	locks         keylock.Map
}

// NewManager creates a Manager. Defaults are a 24h TTL and a 5m touch interval.
func NewManager[Data any](store Store[Data], opts ...Option) *Manager[Data] {
	o := options{ttl: 24 * time.Hour, touchInterval: 5 * time.Minute}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[Data]{
		store:         store,
		ttl:           o.ttl,
		touchInterval: o.touchInterval,
	}
}

// New creates and persists an anonymous session.
func (m *Manager[Data]) New(ctx context.Context, params NewSessionParams) (Session[Data], error) {
	sess := New[Data](params, m.ttl)
	if err := m.store.Save(ctx, &sess); err != nil {
		return Session[Data]{}, errors.Join(ErrSaveSession, err)
	}
	sess.isModified = false
	return sess, nil
}

// Get loads a session and rejects expired ones.
func (m *Manager[Data]) Get(ctx context.Context, id uuid.UUID) (Session[Data], error) {
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return Session[Data]{}, err
	}
	if sess.IsExpired() {
		return Session[Data]{}, ErrExpired
	}
	return *sess, nil
}

// Update loads the session, applies fn and saves the result while holding
// the session's lock. Nothing is saved when fn returns an error.
func (m *Manager[Data]) Update(ctx context.Context, id uuid.UUID, fn func(*Session[Data]) error) (Session[Data], error) {
	unlock := m.locks.Lock(id.String())
	defer unlock()

	sess, err := m.Get(ctx, id)
	if err != nil {
		return Session[Data]{}, err
	}
	if err := fn(&sess); err != nil {
		return Session[Data]{}, err
	}

	sess.Touch(m.ttl, m.touchInterval)
	sess.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, &sess); err != nil {
		return Session[Data]{}, errors.Join(ErrSaveSession, err)
	}
	sess.isModified = false
	return sess, nil
}

// Authenticate moves the session's data to a fresh session ID owned by userID
// and deletes the old one, so a pre-login ID cannot be reused.
func (m *Manager[Data]) Authenticate(ctx context.Context, current Session[Data], userID string) (Session[Data], error) {
	unlock := m.locks.Lock(current.ID.String())
	defer unlock()

	next := New[Data](NewSessionParams{IP: current.IP, UserAgent: current.UserAgent}, m.ttl)
	next.UserID = userID
	if stored, err := m.store.Get(ctx, current.ID); err == nil {
		next.Data = stored.Data
	}

	if err := m.store.Save(ctx, &next); err != nil {
		return Session[Data]{}, errors.Join(ErrSaveSession, err)
	}
	if err := m.store.Delete(ctx, current.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return Session[Data]{}, errors.Join(ErrDeleteSession, err)
	}

	next.isModified = false
	return next, nil
}

// Delete removes a session. Unknown IDs are not an error.
func (m *Manager[Data]) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := m.locks.Lock(id.String())
	defer unlock()

	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Join(ErrDeleteSession, err)
	}
	return nil
}

// CleanupExpired removes expired sessions from the store.
func (m *Manager[Data]) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

// RunCleanup calls CleanupExpired every interval until ctx is done.
func (m *Manager[Data]) RunCleanup(ctx context.Context, interval time.Duration, log *slog.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := m.CleanupExpired(ctx)
			if err != nil {
				log.ErrorContext(ctx, "session cleanup failed", logger.Error(err))
				continue
			}
			if n > 0 {
				log.DebugContext(ctx, "expired sessions removed", logger.Key("count", n))
			}
		}
	}
}

// TTL returns the session time-to-live.
func (m *Manager[Data]) TTL() time.Duration {
	return m.ttl
}

// Ping checks that the store answers. Used by readiness probes.
func (m *Manager[Data]) Ping(ctx context.Context) error {
	_, err := m.store.Get(ctx, uuid.Nil)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
