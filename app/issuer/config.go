package issuer

import (
	"time"

	"github.com/gridlinecompany/LetsEcrypt/core/cookie"
	"github.com/gridlinecompany/LetsEcrypt/core/server"
	"github.com/gridlinecompany/LetsEcrypt/core/session"
	"github.com/gridlinecompany/LetsEcrypt/core/sessiontransport"
	"github.com/gridlinecompany/LetsEcrypt/integration/database/redis"
	"github.com/gridlinecompany/LetsEcrypt/integration/storage/s3"
	"github.com/gridlinecompany/LetsEcrypt/pkg/dnscheck"
	"github.com/gridlinecompany/LetsEcrypt/pkg/letsencrypt"
	"github.com/gridlinecompany/LetsEcrypt/pkg/ratelimiter"
)

// Config aggregates every environment setting the service reads.
type Config struct {
	Server        server.Config
	Session       session.Config
	Cookie        cookie.Config
	SessionCookie sessiontransport.Config
	ACME          letsencrypt.Config
	DNS           dnscheck.Config
	RateLimit     ratelimiter.Config
	Redis         redis.Config
	S3            s3.Config

	AppName  string `env:"APP_NAME" envDefault:"letsecrypt"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DataDir  string `env:"DATA_DIR" envDefault:"./data"`
	CertDir  string `env:"CERT_DIR" envDefault:"./certificates"`

	// DNSPrepareWait bounds how long /generate waits for the DNS-01 record
	// before answering without it.
	DNSPrepareWait time.Duration `env:"DNS_PREPARE_WAIT" envDefault:"5s"`
	MaxBodyBytes   int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"65536"`
}

// IsProduction reports whether APP_ENV selects strict mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
