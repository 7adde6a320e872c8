package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
)

// Check is a named dependency probe.
type Check struct {
	Name string
	Ping func(context.Context) error
}

// Report is the readiness body. Checks maps each probe to "ok" or "failed".
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Readiness runs every check with timeout and answers 200 when all pass,
// 503 otherwise. Failures are logged, not echoed.
func Readiness[C handler.Context](log *slog.Logger, timeout time.Duration, checks ...Check) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx C) handler.Response {
		pingCtx := context.Context(ctx)
		if timeout > 0 {
			var cancel context.CancelFunc
			pingCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		rep := Report{Status: "READY", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for _, c := range checks {
			if err := c.Ping(pingCtx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Component(c.Name), logger.Error(err))
				rep.Checks[c.Name] = "failed"
				rep.Status = "NOT_READY"
				status = http.StatusServiceUnavailable
				continue
			}
			rep.Checks[c.Name] = "ok"
		}
		return response.NoStore(response.JSONWithStatus(rep, status))
	}
}
