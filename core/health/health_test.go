package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/core/health"
	"github.com/gridlinecompany/LetsEcrypt/core/router"
)

func TestLiveness(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/healthz", health.Liveness[*router.Context])

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := health.Check{Name: "sessions", Ping: func(context.Context) error { return nil }}
	down := health.Check{Name: "redis", Ping: func(context.Context) error { return errors.New("dial tcp: refused") }}

	tests := []struct {
		name   string
		checks []health.Check
		status int
		want   health.Report
	}{
		{
			name:   "all pass",
			checks: []health.Check{ok},
			status: http.StatusOK,
			want:   health.Report{Status: "READY", Checks: map[string]string{"sessions": "ok"}},
		},
		{
			name:   "one fails",
			checks: []health.Check{ok, down},
			status: http.StatusServiceUnavailable,
			want:   health.Report{Status: "NOT_READY", Checks: map[string]string{"sessions": "ok", "redis": "failed"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := router.New[*router.Context]()
			r.Get("/readyz", health.Readiness[*router.Context](nil, time.Second, tt.checks...))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			require.Equal(t, tt.status, rec.Code)
			var got health.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, rec.Body.String(), "refused")
		})
	}
}
