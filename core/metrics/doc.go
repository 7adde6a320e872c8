// Package metrics exposes Prometheus counters for certificate issuance and
// HTTP traffic.
//
//	meter := metrics.New()
//	orch, err := letsencrypt.New(store, checker, letsencrypt.WithObserver(meter))
//	mux.Handle("/metrics", meter)
//
// Each Meter owns its registry, so several can coexist in tests.
package metrics
