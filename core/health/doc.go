// Package health provides liveness and readiness handlers.
//
//	r.Get("/healthz", health.Liveness[*issuer.Context])
//	r.Get("/readyz", health.Readiness[*issuer.Context](log, 2*time.Second,
//		health.Check{Name: "sessions", Ping: sessions.Ping},
//	))
//
// Liveness never touches dependencies. Readiness answers 503 with a JSON
// report when any check fails.
package health
