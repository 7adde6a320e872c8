package letsencrypt

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/lego"
)

// Option configures the Orchestrator.
type Option func(*config) error

type config struct {
	directoryURL     string
	production       bool
	dataDir          string
	certDir          string
	validationDelays []time.Duration
	downloadBase     time.Duration
	downloadAttempts int
	settleDelay      time.Duration
	challengeTimeout time.Duration
	log              *slog.Logger
	observer         Observer
	mirror           Mirror
	clientFactory    clientFactory
}

func defaultConfig() config {
	return config{
		directoryURL:     lego.LEDirectoryStaging,
		dataDir:          "./data",
		certDir:          "./certificates",
		validationDelays: []time.Duration{30 * time.Second, 120 * time.Second},
		downloadBase:     5 * time.Second,
		downloadAttempts: 5,
		settleDelay:      10 * time.Second,
		challengeTimeout: 2 * time.Minute,
		observer:         nopObserver{},
		clientFactory:    defaultClientFactory,
	}
}

// WithDirectoryURL sets the ACME directory URL. Defaults to Let's Encrypt staging.
func WithDirectoryURL(url string) Option {
	return func(cfg *config) error {
		url = strings.TrimSpace(url)
		if url == "" {
			return errors.New("directory url cannot be empty")
		}
		cfg.directoryURL = url
		return nil
	}
}

// WithProduction turns off placeholder DNS records on failure.
func WithProduction(production bool) Option {
	return func(cfg *config) error {
		cfg.production = production
		return nil
	}
}

// WithDataDir sets where the ACME account key is kept.
func WithDataDir(dir string) Option {
	return func(cfg *config) error {
		cfg.dataDir = strings.TrimSpace(dir)
		return nil
	}
}

// WithCertDir sets where issued certificates and keys are written.
func WithCertDir(dir string) Option {
	return func(cfg *config) error {
		cfg.certDir = strings.TrimSpace(dir)
		return nil
	}
}

// WithValidationSchedule sets the delays between validation attempts.
// The attempt count is len(delays)+1.
func WithValidationSchedule(delays ...time.Duration) Option {
	return func(cfg *config) error {
		cfg.validationDelays = append([]time.Duration(nil), delays...)
		return nil
	}
}

// WithDownloadPolicy sets the download attempt count and the linear backoff base.
func WithDownloadPolicy(base time.Duration, attempts int) Option {
	return func(cfg *config) error {
		if attempts < 1 {
			return errors.New("download attempts must be positive")
		}
		cfg.downloadBase = base
		cfg.downloadAttempts = attempts
		return nil
	}
}

// WithSettleDelay sets the pause between a valid challenge and finalization.
func WithSettleDelay(d time.Duration) Option {
	return func(cfg *config) error {
		cfg.settleDelay = d
		return nil
	}
}

// WithChallengeTimeout bounds each wait for the CA's authorization decision.
func WithChallengeTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return errors.New("challenge timeout must be positive")
		}
		cfg.challengeTimeout = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(cfg *config) error {
		cfg.log = log
		return nil
	}
}

// WithObserver registers an event observer, such as a metrics collector.
func WithObserver(o Observer) Option {
	return func(cfg *config) error {
		if o != nil {
			cfg.observer = o
		}
		return nil
	}
}

// WithMirror copies issued artifacts to secondary storage.
func WithMirror(m Mirror) Option {
	return func(cfg *config) error {
		cfg.mirror = m
		return nil
	}
}

func withClientFactory(f clientFactory) Option {
	return func(cfg *config) error {
		cfg.clientFactory = f
		return nil
	}
}
