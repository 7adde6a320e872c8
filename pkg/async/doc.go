// Package async runs background work and retries.
//
// Runner starts detached tasks that outlive the HTTP request which triggered
// them but stop with the application:
//
//	runner := async.NewRunner(ctx, log)
//	runner.Go("verify-dns", func(ctx context.Context) error {
//		return orchestrator.CompleteVerified(ctx, domain, email)
//	})
//	defer runner.Shutdown(shutdownCtx)
//
// Retry wraps github.com/sethvargo/go-retry with attempt numbering and
// explicit schedules:
//
//	err := async.Retry(ctx, async.Schedule(30*time.Second, 2*time.Minute),
//		func(ctx context.Context, attempt int) error {
//			if err := validate(ctx); errors.Is(err, errInvalid) {
//				return async.Permanent(err)
//			}
//			return err
//		})
package async
