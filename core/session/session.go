package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side session carrying application data of type Data.
type Session[Data any] struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Data      Data      `json:"data"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	isModified bool
}

// NewSessionParams describes the client a session is created for.
type NewSessionParams struct {
	IP        string
	UserAgent string
}

// New creates an anonymous session expiring after ttl.
func New[Data any](params NewSessionParams, ttl time.Duration) Session[Data] {
	now := time.Now()
	return Session[Data]{
		ID:         uuid.New(),
		IP:         params.IP,
		UserAgent:  params.UserAgent,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		UpdatedAt:  now,
		isModified: true,
	}
}

// SetData replaces the session data.
func (s *Session[Data]) SetData(data Data) {
	s.Data = data
	s.UpdatedAt = time.Now()
	s.isModified = true
}

// Touch extends the expiry when at least touchInterval has passed since the last update.
func (s *Session[Data]) Touch(ttl, touchInterval time.Duration) {
	if time.Since(s.UpdatedAt) >= touchInterval {
		now := time.Now()
		s.ExpiresAt = now.Add(ttl)
		s.UpdatedAt = now
		s.isModified = true
	}
}

// IsAuthenticated reports whether a user is attached.
func (s Session[Data]) IsAuthenticated() bool {
	return s.UserID != ""
}

// IsModified reports whether the session changed since it was loaded.
func (s Session[Data]) IsModified() bool {
	return s.isModified
}

// IsExpired reports whether the session is past its expiry.
func (s Session[Data]) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
