package certrequest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gridlinecompany/LetsEcrypt/core/session"
)

// Tracker applies State transitions to stored sessions. Each transition is
// a locked read-modify-write, so handlers and background tasks can update
// the same session concurrently.
type Tracker struct {
	sessions *session.Manager[State]
}

// NewTracker creates a Tracker over mgr.
func NewTracker(mgr *session.Manager[State]) *Tracker {
	return &Tracker{sessions: mgr}
}

func (t *Tracker) apply(ctx context.Context, sid uuid.UUID, fn func(*State) bool) (bool, error) {
	var applied bool
	_, err := t.sessions.Update(ctx, sid, func(s *session.Session[State]) error {
		applied = fn(&s.Data)
		return nil
	})
	return applied, err
}

// Submit starts a new request, superseding any previous one. A RequestID
// and RequestTime are assigned when empty.
func (t *Tracker) Submit(ctx context.Context, sid uuid.UUID, p Pending) (Pending, error) {
	if p.RequestID == "" {
		p.RequestID = uuid.NewString()
	}
	if p.RequestTime.IsZero() {
		p.RequestTime = time.Now()
	}
	_, err := t.apply(ctx, sid, func(s *State) bool {
		s.Submit(p)
		return true
	})
	return p, err
}

// MarkPrepared records the DNS-01 record for requestID.
func (t *Tracker) MarkPrepared(ctx context.Context, sid uuid.UUID, requestID, name, value string, fallback bool) (bool, error) {
	return t.apply(ctx, sid, func(s *State) bool {
		return s.MarkPrepared(requestID, name, value, fallback)
	})
}

// MarkPrepareFailed records a preparation error for requestID.
func (t *Tracker) MarkPrepareFailed(ctx context.Context, sid uuid.UUID, requestID, msg string) (bool, error) {
	return t.apply(ctx, sid, func(s *State) bool {
		return s.MarkPrepareFailed(requestID, msg)
	})
}

// MarkDNSVerified flags the pending request for domain as verified.
func (t *Tracker) MarkDNSVerified(ctx context.Context, sid uuid.UUID, domain string) (bool, error) {
	return t.apply(ctx, sid, func(s *State) bool {
		return s.MarkDNSVerified(domain)
	})
}

// Complete records success for requestID. It reports false when the request
// was superseded.
func (t *Tracker) Complete(ctx context.Context, sid uuid.UUID, requestID string, c Completed) (bool, error) {
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now()
	}
	return t.apply(ctx, sid, func(s *State) bool {
		return s.Complete(requestID, c)
	})
}

// Fail records failure for requestID. It reports false when the request
// was superseded.
func (t *Tracker) Fail(ctx context.Context, sid uuid.UUID, requestID string, f Failure) (bool, error) {
	if f.FailedAt.IsZero() {
		f.FailedAt = time.Now()
	}
	return t.apply(ctx, sid, func(s *State) bool {
		return s.Fail(requestID, f)
	})
}

// Consume reads the status and clears a reported outcome.
func (t *Tracker) Consume(ctx context.Context, sid uuid.UUID) (Snapshot, error) {
	var snap Snapshot
	_, err := t.apply(ctx, sid, func(s *State) bool {
		snap = s.Consume()
		return true
	})
	return snap, err
}

// Current returns the session's state without changing it.
func (t *Tracker) Current(ctx context.Context, sid uuid.UUID) (State, error) {
	sess, err := t.sessions.Get(ctx, sid)
	if err != nil {
		return State{}, err
	}
	return sess.Data, nil
}
