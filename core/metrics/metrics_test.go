package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/core/metrics"
	"github.com/gridlinecompany/LetsEcrypt/pkg/letsencrypt"
)

var _ letsencrypt.Observer = (*metrics.Meter)(nil)

func TestMeterIssuanceCounters(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ChallengeStarted("example.com", "dns-01")
	m.ValidationAttempt("example.com", 1)
	m.ValidationAttempt("example.com", 2)
	m.DownloadAttempt("example.com", 1)
	m.IssuanceFinished("example.com", "dns-01", nil, 3*time.Second)
	m.IssuanceFinished("other.com", "http-01", errors.New("invalid"), time.Second)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `letsecrypt_acme_challenges_started_total{method="dns-01"} 1`)
	assert.Contains(t, body, `letsecrypt_acme_validation_attempts_total{attempt="2"} 1`)
	assert.Contains(t, body, `letsecrypt_acme_download_attempts_total{attempt="1"} 1`)
	assert.Contains(t, body, `letsecrypt_acme_issuances_total{method="dns-01",success="true"} 1`)
	assert.Contains(t, body, `letsecrypt_acme_issuances_total{method="http-01",success="false"} 1`)
	assert.Contains(t, body, `letsecrypt_acme_issuance_duration_seconds_count{method="dns-01"} 1`)
	assert.NotContains(t, body, `issuance_duration_seconds_count{method="http-01"}`)
	assert.Contains(t, body, "letsecrypt_uptime_seconds")
}

func TestMeterObserveRequest(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ObserveRequest(http.MethodGet, "/status", http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/status", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/generate", http.StatusTooManyRequests, time.Millisecond)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	counts := map[string]int{}
	for _, f := range families {
		counts[f.GetName()] = len(f.GetMetric())
	}
	assert.Equal(t, 2, counts["letsecrypt_http_requests_total"])
	assert.Equal(t, 2, counts["letsecrypt_http_request_duration_seconds"])
}
