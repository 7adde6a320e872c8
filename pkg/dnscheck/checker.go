package dnscheck

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/pkg/async"
)

// Checker verifies DNS-01 records.
type Checker struct {
	resolver Resolver
	retries  int
	delay    time.Duration
	log      *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithResolver replaces the system resolver.
func WithResolver(r Resolver) Option {
	return func(c *Checker) { c.resolver = r }
}

// WithRetries sets how many times a failed check is repeated.
func WithRetries(n int) Option {
	return func(c *Checker) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Checker) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Checker) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Checker. It retries twice with a 3s delay by default.
func New(opts ...Option) *Checker {
	c := &Checker{retries: 2, delay: 3 * time.Second, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = NewSystemResolver("")
	}
	return c
}

// NewFromConfig creates a Checker from cfg.
func NewFromConfig(cfg Config, opts ...Option) *Checker {
	base := []Option{
		WithResolver(NewSystemResolver(cfg.ResolvConf)),
		WithRetries(cfg.Retries),
		WithRetryDelay(cfg.RetryDelay),
	}
	return New(append(base, opts...)...)
}

// RecordName returns the DNS-01 record name for domain. A wildcard prefix
// is dropped.
func RecordName(domain string) string {
	return "_acme-challenge." + strings.TrimPrefix(strings.TrimSpace(domain), "*.")
}

// Normalize trims whitespace and one layer of surrounding double quotes.
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		v = v[1 : len(v)-1]
	}
	return strings.TrimSpace(v)
}

func matches(found, expected string) bool {
	return found == expected || Normalize(found) == Normalize(expected)
}

// Verify checks that the TXT record for domain carries expected.
// The result is a *NotFoundError, a *MismatchError, a context error or nil.
func (c *Checker) Verify(ctx context.Context, domain, expected string) error {
	name := RecordName(domain)
	log := c.log.With(logger.Domain(domain), logger.Component("dnscheck"))

	return async.Retry(ctx, async.Constant(c.delay, c.retries), func(ctx context.Context, attempt int) error {
		err := c.check(ctx, name, expected)
		if err != nil {
			log.DebugContext(ctx, "dns check failed", logger.Attempt(attempt), logger.Error(err))
			if ctx.Err() != nil {
				return async.Permanent(ctx.Err())
			}
			return err
		}
		log.DebugContext(ctx, "dns record verified", logger.Attempt(attempt))
		return nil
	})
}

func (c *Checker) check(ctx context.Context, name, expected string) error {
	values, err := c.resolver.LookupTXT(ctx, name)
	if err != nil {
		return &NotFoundError{Name: name, Err: err}
	}
	if len(values) == 0 {
		return &NotFoundError{Name: name}
	}
	for _, v := range values {
		if matches(v, expected) {
			return nil
		}
	}
	return &MismatchError{Name: name, Expected: Normalize(expected), Found: values}
}
