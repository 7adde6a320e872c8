package issuer

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gridlinecompany/LetsEcrypt/core/router"
	"github.com/gridlinecompany/LetsEcrypt/core/session"
	"github.com/gridlinecompany/LetsEcrypt/middleware"
	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
)

// Context is the handler context of the certificate API.
type Context struct {
	*router.Context
}

func newContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{Context: router.NewContext(w, r)}
}

// Session returns the session loaded by the session middleware.
func (c *Context) Session() (session.Session[certrequest.State], bool) {
	return middleware.GetSession[certrequest.State](c)
}

// SessionID returns the loaded session's ID, or uuid.Nil.
func (c *Context) SessionID() uuid.UUID {
	sess, ok := c.Session()
	if !ok {
		return uuid.Nil
	}
	return sess.ID
}

// UserID returns the authenticated user, or "".
func (c *Context) UserID() string {
	sess, ok := c.Session()
	if !ok {
		return ""
	}
	return sess.UserID
}
