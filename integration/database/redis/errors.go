package redis

import "errors"

// Errors returned by Connect and Healthcheck. Causes are joined so both
// the sentinel and the driver error match errors.Is.
var (
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	ErrInvalidURL         = errors.New("redis: invalid connection URL")
	ErrRedisNotReady      = errors.New("redis: not ready within connect timeout")
	ErrHealthcheckFailed  = errors.New("redis: healthcheck failed")
)
