package middleware

import (
	"fmt"
	"net/http"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
)

// BodyLimit rejects bodies over maxSize bytes. A declared Content-Length
// over the limit is refused up front; otherwise reads past the limit fail.
func BodyLimit[C handler.Context](maxSize int64) handler.Middleware[C] {
	if maxSize <= 0 {
		maxSize = 64 << 10
	}
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			req := ctx.Request()
			if req.ContentLength > maxSize {
				return response.Error(response.ErrBadRequest.WithMessage(
					fmt.Sprintf("Request body too large. Maximum allowed: %d bytes", maxSize)))
			}
			if req.Body != nil && req.Body != http.NoBody {
				req.Body = http.MaxBytesReader(ctx.ResponseWriter(), req.Body, maxSize)
			}
			return next(ctx)
		}
	}
}
