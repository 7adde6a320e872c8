package sessiontransport

import (
	"github.com/gridlinecompany/LetsEcrypt/core/cookie"
	"github.com/gridlinecompany/LetsEcrypt/core/session"
)

// Config is the environment-driven cookie transport configuration.
type Config struct {
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"__session"`
}

// NewFromConfig creates a cookie transport from cfg.
func NewFromConfig[Data any](cfg Config, mgr *session.Manager[Data], cookies *cookie.Manager) *Cookie[Data] {
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return NewCookie(mgr, cookies, name)
}
