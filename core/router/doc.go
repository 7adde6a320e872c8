// Package router is a generic HTTP router built on go-chi/chi.
//
// Routes take handler.HandlerFunc values bound to a concrete context type.
// The router builds that context per request, runs the middleware chain,
// renders the returned handler.Response and sends any error to a single
// error handler:
//
//	r := router.New[*issuer.Context](
//		router.WithContextFactory(issuer.NewContext),
//		router.WithErrorHandler(response.JSONErrorHandler[*issuer.Context]),
//		router.WithLogger[*issuer.Context](log),
//	)
//
//	r.Get("/status", app.status)
//	r.Route("/certificates", func(r router.Router[*issuer.Context]) {
//		r.Use(requireUser)
//		r.Get("/{id}", app.showCertificate)
//	})
//
// Path parameters use chi syntax and are read with ctx.Param("id").
//
// Unknown paths and methods reach the error handler as ErrNotFound and
// ErrMethodNotAllowed, which report 404 and 405 through StatusCode().
// Panics are recovered and passed on as a PanicError; when the response was
// already written the panic is logged instead.
//
// Middleware applies to routes registered after Use. With, Group and Route
// copy the current stack, so additions inside them stay local.
package router
