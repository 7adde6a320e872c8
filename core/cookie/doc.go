// Package cookie manages HMAC-signed HTTP cookies.
//
//	m, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")}, cookie.WithSecure(true))
//	if err != nil {
//		return err
//	}
//	_ = m.SetSigned(w, "__session", sessionID)
//	id, err := m.GetSigned(r, "__session")
//
// Secrets must be at least 32 characters. The first secret signs new
// cookies and all secrets verify, so a new secret can be prepended while
// old cookies stay valid.
//
// Cookies default to Path=/, HttpOnly and SameSite=Lax.
package cookie
