package letsencrypt

import (
	"time"

	"github.com/go-acme/lego/v4/lego"
)

// Config is the environment-driven orchestrator configuration.
type Config struct {
	// DirectoryURL overrides the Let's Encrypt directory picked from the environment.
	DirectoryURL     string        `env:"ACME_DIRECTORY_URL"`
	ChallengeTimeout time.Duration `env:"ACME_CHALLENGE_TIMEOUT" envDefault:"2m"`
	SettleDelay      time.Duration `env:"ACME_SETTLE_DELAY" envDefault:"10s"`
}

// Directory returns the configured directory URL, or the Let's Encrypt
// production or staging directory.
func (c Config) Directory(production bool) string {
	if c.DirectoryURL != "" {
		return c.DirectoryURL
	}
	if production {
		return lego.LEDirectoryProduction
	}
	return lego.LEDirectoryStaging
}
