package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
	"github.com/gridlinecompany/LetsEcrypt/core/session"
)

type sessionKey struct{}

// SessionLoader loads or creates the request's session, writing its cookie
// to w when a new one is created. *sessiontransport.Cookie satisfies it.
type SessionLoader[Data any] interface {
	Load(w http.ResponseWriter, r *http.Request) (session.Session[Data], error)
}

// SessionConfig configures Session.
type SessionConfig[Data any] struct {
	Loader SessionLoader[Data]
	Logger *slog.Logger
	// RequireAuth answers 401 for sessions without a user.
	RequireAuth bool
}

// Session loads the session into the request context. Load failures are
// 500s since every request gets a session.
func Session[C handler.Context, Data any](cfg SessionConfig[Data]) handler.Middleware[C] {
	if cfg.Loader == nil {
		panic("session middleware: loader is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			sess, err := cfg.Loader.Load(ctx.ResponseWriter(), ctx.Request())
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return response.Error(ctxErr)
				}
				cfg.Logger.ErrorContext(ctx, "failed to load session", logger.Error(err))
				return response.Error(response.ErrInternalServerError)
			}
			if cfg.RequireAuth && !sess.IsAuthenticated() {
				return response.Error(response.ErrUnauthorized.WithMessage("Authentication required"))
			}
			SetSession(ctx, sess)
			return next(ctx)
		}
	}
}

// RequireAuth answers 401 unless an authenticated session was loaded by
// Session earlier in the chain.
func RequireAuth[C handler.Context, Data any]() handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			sess, ok := GetSession[Data](ctx)
			if !ok || !sess.IsAuthenticated() {
				return response.Error(response.ErrUnauthorized.WithMessage("Authentication required"))
			}
			return next(ctx)
		}
	}
}

// GetSession returns the session stored by Session or SetSession.
func GetSession[Data any](ctx handler.Context) (session.Session[Data], bool) {
	sess, ok := ctx.Value(sessionKey{}).(session.Session[Data])
	return sess, ok
}

// SetSession replaces the request's session, e.g. after login.
func SetSession[Data any](ctx handler.Context, sess session.Session[Data]) {
	ctx.SetValue(sessionKey{}, sess)
}
