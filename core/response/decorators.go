package response

import (
	"net/http"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
)

// WithHeaders sets headers before rendering the wrapped response.
func WithHeaders(resp handler.Response, headers map[string]string) handler.Response {
	if resp == nil || len(headers) == 0 {
		return resp
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		return resp(w, r)
	}
}

// NoStore marks the response as uncacheable. Polling endpoints use it so
// intermediaries never serve a stale status.
func NoStore(resp handler.Response) handler.Response {
	return WithHeaders(resp, map[string]string{
		"Cache-Control": "no-store",
		"Pragma":        "no-cache",
	})
}
