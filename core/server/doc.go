// Package server runs an HTTP handler with production timeouts and graceful
// shutdown.
//
//	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	return srv.Run(ctx, handler)
//
// Run blocks until ctx is cancelled, then waits up to the shutdown timeout
// for in-flight requests. Request contexts are not cancelled by ctx, so a
// shutdown lets running handlers finish.
package server
