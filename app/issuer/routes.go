package issuer

import (
	"net/http"
	"time"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/health"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
	"github.com/gridlinecompany/LetsEcrypt/core/router"
	"github.com/gridlinecompany/LetsEcrypt/middleware"
	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
)

func (a *App) routes() router.Router[*Context] {
	r := router.New[*Context](
		router.WithContextFactory[*Context](newContext),
		router.WithErrorHandler[*Context](response.JSONErrorHandler[*Context]),
		router.WithLogger[*Context](a.log),
	)
	r.Use(
		middleware.RequestID[*Context](),
		middleware.Logging[*Context](middleware.LoggingConfig{
			Logger:   a.log,
			Observer: a.meter,
			Skip: func(ctx handler.Context) bool {
				return ctx.Request().URL.Path == "/healthz"
			},
		}),
		middleware.SecurityHeaders[*Context](a.cfg.IsProduction()),
	)

	// The CA fetches this without a session.
	r.Get("/.well-known/acme-challenge/{token}", a.acmeChallenge)

	r.Get("/healthz", health.Liveness[*Context])
	r.Get("/readyz", health.Readiness[*Context](a.log, 2*time.Second, a.checks...))
	r.Get("/metrics", func(*Context) handler.Response {
		return response.Handler(a.meter)
	})

	limited := middleware.RateLimit[*Context](middleware.RateLimitConfig{
		Limiter:    a.limiter,
		SetHeaders: true,
	})

	r.Group(func(r router.Router[*Context]) {
		r.Use(
			middleware.BodyLimit[*Context](a.cfg.MaxBodyBytes),
			middleware.Session[*Context](middleware.SessionConfig[certrequest.State]{
				Loader: a.sessions,
				Logger: a.log,
			}),
		)

		r.Post("/users/register", a.register)
		r.With(limited).Post("/users/login", a.login)
		r.Post("/users/logout", a.logout)

		r.Group(func(r router.Router[*Context]) {
			r.Use(middleware.RequireAuth[*Context, certrequest.State]())

			r.Get("/users/me", a.me)

			r.With(limited).Post("/generate", a.generate)
			r.Get("/dns-challenge-status", a.dnsChallengeStatus)
			r.Post("/check-dns", a.checkDNS)
			r.Post("/verify-dns", a.verifyDNS)
			r.Get("/status", a.status)

			r.Get("/certificates", a.listCertificates)
			r.Get("/certificates/{id}", a.getCertificate)
			r.Get("/certificates/{id}/download/{type}", a.downloadCertificate)
		})
	})

	return r
}

func (a *App) acmeChallenge(ctx *Context) handler.Response {
	keyAuth, ok := a.issuer.KeyAuthorization(ctx.Param("token"))
	if !ok {
		return response.StringWithStatus("Not found", http.StatusNotFound)
	}
	return response.String(keyAuth)
}
