package sessiontransport

import "errors"

var (
	// ErrNoSession is returned when the request carries no session cookie.
	ErrNoSession = errors.New("sessiontransport: no session cookie")

	// ErrInvalidSessionID is returned when the cookie holds a malformed ID.
	ErrInvalidSessionID = errors.New("sessiontransport: invalid session id")
)
