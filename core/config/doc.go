// Package config loads typed configuration from environment variables.
//
// On first use the package loads a .env file from the working directory
// (ignored when absent) and then parses struct tags with caarlos0/env:
//
//	type ACMEConfig struct {
//		DirectoryURL string        `env:"ACME_DIRECTORY_URL"`
//		SettleDelay  time.Duration `env:"ACME_SETTLE_DELAY" envDefault:"10s"`
//	}
//
//	var cfg ACMEConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// MustLoad panics instead of returning the error and suits main packages.
//
// Each struct type is parsed once per process and cached; loading the same
// type again returns the cached values even if the environment changed.
// Reset clears the cache for tests.
package config
