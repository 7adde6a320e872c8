package sessiontransport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gridlinecompany/LetsEcrypt/core/cookie"
	"github.com/gridlinecompany/LetsEcrypt/core/session"
	"github.com/gridlinecompany/LetsEcrypt/pkg/clientip"
)

// DefaultCookieName is used when no cookie name is configured.
const DefaultCookieName = "__session"

// Cookie carries the session ID in a signed HTTP-only cookie.
type Cookie[Data any] struct {
	manager *session.Manager[Data]
	cookies *cookie.Manager
	name    string
}

// NewCookie creates a cookie-based session transport.
func NewCookie[Data any](mgr *session.Manager[Data], cookies *cookie.Manager, name string) *Cookie[Data] {
	return &Cookie[Data]{manager: mgr, cookies: cookies, name: name}
}

// Manager returns the underlying session manager.
func (c *Cookie[Data]) Manager() *session.Manager[Data] {
	return c.manager
}

// ID returns the session ID carried by r.
func (c *Cookie[Data]) ID(r *http.Request) (uuid.UUID, error) {
	raw, err := c.cookies.GetSigned(r, c.name)
	if err != nil {
		if errors.Is(err, cookie.ErrCookieNotFound) {
			return uuid.Nil, ErrNoSession
		}
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidSessionID
	}
	return id, nil
}

// Load returns the request's session. A missing, tampered or expired cookie
// yields a fresh anonymous session whose cookie is written to w.
func (c *Cookie[Data]) Load(w http.ResponseWriter, r *http.Request) (session.Session[Data], error) {
	if id, err := c.ID(r); err == nil {
		if sess, err := c.manager.Get(r.Context(), id); err == nil {
			return sess, nil
		}
	}

	sess, err := c.manager.New(r.Context(), session.NewSessionParams{
		IP:        clientip.GetIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return session.Session[Data]{}, err
	}
	if err := c.Save(w, sess); err != nil {
		return session.Session[Data]{}, err
	}
	return sess, nil
}

// Save writes the session cookie with a MaxAge matching the session expiry.
func (c *Cookie[Data]) Save(w http.ResponseWriter, sess session.Session[Data]) error {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		return session.ErrExpired
	}
	return c.cookies.SetSigned(w, c.name, sess.ID.String(),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
		cookie.WithMaxAge(maxAge),
	)
}

// Authenticate binds the request's session to userID under a new session ID
// and rewrites the cookie.
func (c *Cookie[Data]) Authenticate(w http.ResponseWriter, r *http.Request, userID string) (session.Session[Data], error) {
	current, err := c.Load(w, r)
	if err != nil {
		return session.Session[Data]{}, err
	}
	authed, err := c.manager.Authenticate(r.Context(), current, userID)
	if err != nil {
		return session.Session[Data]{}, err
	}
	if err := c.Save(w, authed); err != nil {
		return session.Session[Data]{}, err
	}
	return authed, nil
}

// Destroy deletes the request's session and clears the cookie.
func (c *Cookie[Data]) Destroy(w http.ResponseWriter, r *http.Request) error {
	defer c.cookies.Delete(w, c.name)

	id, err := c.ID(r)
	if err != nil {
		return nil
	}
	return c.manager.Delete(r.Context(), id)
}

// Update applies fn to the request's session under the manager's lock.
func (c *Cookie[Data]) Update(ctx context.Context, id uuid.UUID, fn func(*session.Session[Data]) error) (session.Session[Data], error) {
	return c.manager.Update(ctx, id, fn)
}
