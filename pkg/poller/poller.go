package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/gridlinecompany/LetsEcrypt/core/logger"
)

// BudgetExhaustedMessage is reported when the poll budget runs out.
const BudgetExhaustedMessage = "Certificate process is taking longer than expected. Please check your certificates page later."

// ErrorsExhaustedMessage is reported after too many consecutive check errors.
const ErrorsExhaustedMessage = "Error checking certificate status. Please check your certificates page manually."

// ErrBudgetExhausted is the Result error when polling ran out of attempts.
var ErrBudgetExhausted = errors.New("poller: taking longer than expected")

// Update is the outcome of one check.
type Update struct {
	Done    bool
	Failed  bool
	Message string
	Details []string
	// Value carries check-specific data, such as the certificate ID.
	Value string
}

// Result is the final state of a run.
type Result struct {
	Update Update
	Polls  int
	Err    error
}

// CheckFunc performs one status check.
type CheckFunc func(ctx context.Context) (Update, error)

// Poller runs one polling loop at a time.
type Poller struct {
	interval  time.Duration
	maxPolls  int
	maxErrors int
	log       *slog.Logger

	startMu sync.Mutex
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the time between checks.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithMaxPolls sets the poll budget.
func WithMaxPolls(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxPolls = n
		}
	}
}

// WithMaxErrors sets how many consecutive check errors stop the run.
func WithMaxErrors(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxErrors = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a Poller checking every 5s, at most 60 times, stopping after
// 3 consecutive errors.
func New(opts ...Option) *Poller {
	p := &Poller{interval: 5 * time.Second, maxPolls: 60, maxErrors: 3, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.interval <= 0 {
		p.interval = time.Millisecond
	}
	return p
}

// Start stops any previous run and begins polling with check. onUpdate, if
// set, receives each new message and the final update. The returned channel
// yields one Result and is then closed.
func (p *Poller) Start(ctx context.Context, check CheckFunc, onUpdate func(Update)) <-chan Result {
	p.startMu.Lock()
	defer p.startMu.Unlock()

	p.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	results := make(chan Result, 1)

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer close(results)
		defer cancel()
		results <- p.run(ctx, check, onUpdate)
	}()
	return results
}

// Stop cancels the current run and waits for it to exit. It is safe to call
// at any time, any number of times.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Running reports whether a run is in progress.
func (p *Poller) Running() bool {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (p *Poller) run(ctx context.Context, check CheckFunc, onUpdate func(Update)) Result {
	emit := func(u Update) {
		if onUpdate != nil {
			onUpdate(u)
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var lastHash uint64
	errCount := 0
	for poll := 1; ; poll++ {
		u, err := check(ctx)
		switch {
		case ctx.Err() != nil:
			return Result{Polls: poll, Err: ctx.Err()}
		case err != nil:
			errCount++
			p.log.DebugContext(ctx, "status check failed", logger.Attempt(poll), logger.Error(err))
			if errCount >= p.maxErrors {
				final := Update{Failed: true, Message: ErrorsExhaustedMessage}
				emit(final)
				return Result{Update: final, Polls: poll, Err: err}
			}
		case u.Done || u.Failed:
			emit(u)
			return Result{Update: u, Polls: poll}
		default:
			errCount = 0
			if h := xxhash.Sum64String(u.Message); h != lastHash {
				lastHash = h
				emit(u)
			}
		}

		if poll >= p.maxPolls {
			final := Update{Failed: true, Message: BudgetExhaustedMessage}
			emit(final)
			return Result{Update: final, Polls: poll, Err: ErrBudgetExhausted}
		}

		select {
		case <-ctx.Done():
			return Result{Polls: poll, Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}
