package dnscheck

import "time"

// Config is the environment-driven checker configuration.
type Config struct {
	ResolvConf string        `env:"DNS_RESOLV_CONF" envDefault:"/etc/resolv.conf"`
	Retries    int           `env:"DNS_RETRIES" envDefault:"2"`
	RetryDelay time.Duration `env:"DNS_RETRY_DELAY" envDefault:"3s"`
}
