// Package sessiontransport moves session IDs between HTTP requests and a
// session.Manager using signed cookies.
//
// The cookie holds only the session ID, HMAC-signed by cookie.Manager. The
// session data stays server-side, so background work can update it by ID.
//
//	transport := sessiontransport.NewCookie(mgr, cookies, "__session")
//	sess, err := transport.Load(w, r) // always returns a usable session
//	sess, err = transport.Authenticate(w, r, user.ID)
//	err = transport.Destroy(w, r)
package sessiontransport
