package session

import "time"

// Config is the environment-driven session configuration.
type Config struct {
	TTL             time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	TouchInterval   time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"5m"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`
	// Store selects the backend: file, redis or memory.
	Store    string `env:"SESSION_STORE" envDefault:"file"`
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	ttl           time.Duration
	touchInterval time.Duration
}

// WithTTL sets the session idle timeout.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithTouchInterval sets the minimum time between expiry extensions.
func WithTouchInterval(interval time.Duration) Option {
	return func(o *options) {
		o.touchInterval = interval
	}
}
