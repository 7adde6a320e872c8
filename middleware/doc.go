// Package middleware provides handler.Middleware for the certificate API:
// request IDs, request logging with metrics, rate limiting, body limits,
// security headers and session loading.
//
// All middleware is generic over the handler context type:
//
//	r.Use(
//		middleware.RequestID[*issuer.Context](),
//		middleware.Logging[*issuer.Context](middleware.LoggingConfig{Logger: log, Observer: meter}),
//		middleware.SecurityHeaders[*issuer.Context](production),
//	)
//
//	r.Group(func(r router.Router[*issuer.Context]) {
//		r.Use(middleware.Session[*issuer.Context](middleware.SessionConfig[certrequest.State]{Loader: sessions}))
//		r.Use(middleware.RequireAuth[*issuer.Context, certrequest.State]())
//		r.Post("/generate", app.generate)
//	})
//
// Rate limiting answers 429 with Retry-After once the client's bucket is
// empty. The key is the client IP unless KeyExtractor says otherwise.
//
// Logging reports the status the client actually receives, including
// errors rendered later by the router's error handler.
package middleware
