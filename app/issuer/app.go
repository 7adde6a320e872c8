package issuer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gridlinecompany/LetsEcrypt/core/cookie"
	"github.com/gridlinecompany/LetsEcrypt/core/health"
	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/core/metrics"
	"github.com/gridlinecompany/LetsEcrypt/core/router"
	"github.com/gridlinecompany/LetsEcrypt/core/server"
	"github.com/gridlinecompany/LetsEcrypt/core/session"
	"github.com/gridlinecompany/LetsEcrypt/core/sessiontransport"
	"github.com/gridlinecompany/LetsEcrypt/integration/database/redis"
	"github.com/gridlinecompany/LetsEcrypt/integration/storage/s3"
	"github.com/gridlinecompany/LetsEcrypt/pkg/async"
	"github.com/gridlinecompany/LetsEcrypt/pkg/certdb"
	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
	"github.com/gridlinecompany/LetsEcrypt/pkg/challengestore"
	"github.com/gridlinecompany/LetsEcrypt/pkg/dnscheck"
	"github.com/gridlinecompany/LetsEcrypt/pkg/letsencrypt"
	"github.com/gridlinecompany/LetsEcrypt/pkg/ratelimiter"
	"github.com/gridlinecompany/LetsEcrypt/pkg/users"
)

// Issuer drives ACME orders. *letsencrypt.Orchestrator implements it.
type Issuer interface {
	KeyAuthorization(token string) (string, bool)
	BeginHTTPChallenge(ctx context.Context, domain, email string) (*letsencrypt.Certificate, error)
	BeginDNSChallenge(ctx context.Context, domain, email string) (*letsencrypt.DNSRecord, error)
	CompleteDNSChallenge(ctx context.Context, domain, recordValue string) (*letsencrypt.Certificate, error)
	CompleteVerifiedDNSChallenge(ctx context.Context, domain, email, recordValue string) (*letsencrypt.Certificate, error)
}

// DNSVerifier checks that a TXT record has propagated. *dnscheck.Checker
// implements it.
type DNSVerifier interface {
	Verify(ctx context.Context, domain, expected string) error
}

// App is the certificate service: its HTTP API plus the background work
// the API starts.
type App struct {
	cfg Config
	log *slog.Logger

	router   router.Router[*Context]
	server   *server.Server
	sessions *sessiontransport.Cookie[certrequest.State]
	tracker  *certrequest.Tracker
	issuer   Issuer
	verifier DNSVerifier
	users    *users.Store
	certs    *certdb.DB
	runner   *async.Runner
	meter    *metrics.Meter
	buckets  *ratelimiter.MemoryStore
	limiter  *ratelimiter.Bucket

	store      session.Store[certrequest.State]
	checks     []health.Check
	closers    []func() error
	bcryptCost int
}

// Option configures an App.
type Option func(*App) error

// WithLogger sets the logger. By default one is built from APP_ENV and LOG_LEVEL.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) error {
		if log == nil {
			return errors.New("logger cannot be nil")
		}
		a.log = log
		return nil
	}
}

// WithIssuer replaces the Let's Encrypt orchestrator.
func WithIssuer(i Issuer) Option {
	return func(a *App) error {
		if i == nil {
			return errors.New("issuer cannot be nil")
		}
		a.issuer = i
		return nil
	}
}

// WithVerifier replaces the DNS propagation checker.
func WithVerifier(v DNSVerifier) Option {
	return func(a *App) error {
		if v == nil {
			return errors.New("verifier cannot be nil")
		}
		a.verifier = v
		return nil
	}
}

// WithSessionStore overrides SESSION_STORE.
func WithSessionStore(s session.Store[certrequest.State]) Option {
	return func(a *App) error {
		if s == nil {
			return errors.New("session store cannot be nil")
		}
		a.store = s
		return nil
	}
}

// WithServer replaces the HTTP server built from Config.Server.
func WithServer(s *server.Server) Option {
	return func(a *App) error {
		if s == nil {
			return errors.New("server cannot be nil")
		}
		a.server = s
		return nil
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(a *App) error {
		a.bcryptCost = cost
		return nil
	}
}

// New wires the service from cfg. Background tasks live until ctx is done
// or Run returns.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.log == nil {
		a.log = newLogger(cfg)
	}
	a.meter = metrics.New()
	a.runner = async.NewRunner(ctx, a.log.With(logger.Component("tasks")))

	if err := a.initSessions(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initIssuer(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initLimiter(); err != nil {
		a.Close()
		return nil, err
	}

	var userOpts []users.Option
	if a.bcryptCost > 0 {
		userOpts = append(userOpts, users.WithBcryptCost(a.bcryptCost))
	}
	a.users = users.Open(filepath.Join(cfg.DataDir, "users.json"), userOpts...)
	a.certs = certdb.Open(filepath.Join(cfg.DataDir, "certificates.json"))

	if a.server == nil {
		srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(a.log))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.server = srv
	}

	a.router = a.routes()
	return a, nil
}

func newLogger(cfg Config) *slog.Logger {
	opts := []logger.Option{logger.WithDevelopment(cfg.AppName)}
	if cfg.IsProduction() {
		opts = []logger.Option{logger.WithProduction(cfg.AppName)}
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	return logger.New(opts...)
}

func (a *App) initSessions(ctx context.Context) error {
	if a.store == nil {
		store, err := a.openSessionStore(ctx)
		if err != nil {
			return err
		}
		a.store = store
	}

	mgr := session.NewManager(a.store,
		session.WithTTL(a.cfg.Session.TTL),
		session.WithTouchInterval(a.cfg.Session.TouchInterval),
	)
	cookies, err := cookie.NewFromConfig(a.cfg.Cookie)
	if err != nil {
		return fmt.Errorf("cookie manager: %w", err)
	}
	a.sessions = sessiontransport.NewFromConfig(a.cfg.SessionCookie, mgr, cookies)
	a.tracker = certrequest.NewTracker(mgr)
	a.checks = append(a.checks, health.Check{Name: "sessions", Ping: mgr.Ping})
	return nil
}

func (a *App) openSessionStore(ctx context.Context) (session.Store[certrequest.State], error) {
	switch a.cfg.Session.Store {
	case "memory":
		return session.NewMemoryStore[certrequest.State](), nil
	case "redis":
		client, err := redis.Connect(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.checks = append(a.checks, health.Check{Name: "redis", Ping: redis.Healthcheck(client)})
		return session.NewRedisStore[certrequest.State](client, a.cfg.AppName+":session:"), nil
	case "file", "":
		store, err := session.NewFileStore[certrequest.State](filepath.Join(a.cfg.DataDir, "sessions"))
		if err != nil {
			return nil, fmt.Errorf("session file store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", a.cfg.Session.Store)
	}
}

func (a *App) initIssuer(ctx context.Context) error {
	if a.verifier == nil {
		a.verifier = dnscheck.NewFromConfig(a.cfg.DNS, dnscheck.WithLogger(a.log))
	}
	if a.issuer != nil {
		return nil
	}

	opts := []letsencrypt.Option{
		letsencrypt.WithDirectoryURL(a.cfg.ACME.Directory(a.cfg.IsProduction())),
		letsencrypt.WithProduction(a.cfg.IsProduction()),
		letsencrypt.WithDataDir(a.cfg.DataDir),
		letsencrypt.WithCertDir(a.cfg.CertDir),
		letsencrypt.WithSettleDelay(a.cfg.ACME.SettleDelay),
		letsencrypt.WithChallengeTimeout(a.cfg.ACME.ChallengeTimeout),
		letsencrypt.WithLogger(a.log),
		letsencrypt.WithObserver(a.meter),
	}
	if a.cfg.S3.Enabled() {
		mirror, err := s3.New(ctx, a.cfg.S3, s3.WithLogger(a.log))
		if err != nil {
			return fmt.Errorf("s3 mirror: %w", err)
		}
		opts = append(opts, letsencrypt.WithMirror(mirror))
		a.checks = append(a.checks, health.Check{Name: "s3", Ping: mirror.Healthcheck})
	}

	orch, err := letsencrypt.New(challengestore.New(), a.verifier, opts...)
	if err != nil {
		return fmt.Errorf("letsencrypt orchestrator: %w", err)
	}
	a.issuer = orch
	return nil
}

func (a *App) initLimiter() error {
	a.buckets = ratelimiter.NewMemoryStore(ratelimiter.WithMemoryStoreLogger(a.log))
	limiter, err := ratelimiter.NewBucket(a.buckets, a.cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	a.limiter = limiter
	return nil
}

// Handler returns the HTTP handler of the API.
func (a *App) Handler() router.Router[*Context] {
	return a.router
}

// Run serves HTTP until ctx is done, then stops background tasks and
// releases connections.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()

	if interval := a.cfg.Session.CleanupInterval; interval > 0 {
		go func() {
			_ = a.sessions.Manager().RunCleanup(cleanupCtx, interval, a.log)
		}()
	}
	if interval := a.cfg.RateLimit.RefillInterval; interval > 0 {
		go a.buckets.RunCleanup(cleanupCtx, 10*interval)
	}

	a.log.InfoContext(ctx, "starting certificate service",
		logger.Key("env", a.cfg.Env),
		logger.Key("directory", a.cfg.ACME.Directory(a.cfg.IsProduction())),
	)
	err := a.server.Run(ctx, a.router)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout())
	defer cancel()
	if serr := a.runner.Shutdown(shutdownCtx); serr != nil {
		a.log.WarnContext(shutdownCtx, "background tasks did not stop in time", logger.Error(serr))
	}
	return err
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.cfg.Server.ShutdownTimeout; d > 0 {
		return d
	}
	return 30 * time.Second
}

// Close releases external connections. It does not wait for background tasks.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn("close failed", logger.Error(err))
		}
	}
	a.closers = nil
}

// Wait blocks until every background task has returned.
func (a *App) Wait() {
	a.runner.Wait()
}
