package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridlinecompany/LetsEcrypt/core/logger"
)

// Runner starts detached tasks bound to the application lifetime rather than
// to the request that triggered them.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewRunner creates a Runner whose tasks are canceled when parent is done or
// Shutdown is called.
func NewRunner(parent context.Context, log *slog.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	context.AfterFunc(parent, cancel)
	return &Runner{ctx: ctx, cancel: cancel, log: log}
}

// Go runs fn in a new goroutine. Panics are recovered and reported as errors.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) *Future {
	f := newFuture()

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		f.resolve(ErrRunnerStopped)
		return f
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		start := time.Now()

		var err error
		func() {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("task %s panicked: %v", name, p)
					r.log.ErrorContext(r.ctx, "background task panicked",
						logger.Key("task", name),
						logger.Key("panic", p),
						logger.Stack(),
					)
				}
			}()
			err = fn(r.ctx)
		}()

		if err != nil {
			r.log.DebugContext(r.ctx, "background task failed",
				logger.Key("task", name), logger.Elapsed(start), logger.Error(err))
		}
		f.resolve(err)
	}()

	return f
}

// Shutdown stops accepting tasks, cancels running ones and waits for them
// until ctx is done.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every started task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
