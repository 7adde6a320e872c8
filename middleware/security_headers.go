package middleware

import (
	"net/http"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
)

// SecurityHeaders sets conservative headers for a JSON API. hsts adds
// Strict-Transport-Security and should only be on behind TLS.
func SecurityHeaders[C handler.Context](hsts bool) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			resp := next(ctx)
			return func(w http.ResponseWriter, r *http.Request) error {
				h := w.Header()
				h.Set("X-Content-Type-Options", "nosniff")
				h.Set("X-Frame-Options", "DENY")
				h.Set("Referrer-Policy", "no-referrer")
				if hsts {
					h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
				}
				return resp(w, r)
			}
		}
	}
}
