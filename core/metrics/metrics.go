package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "letsecrypt"

// Meter records issuance and HTTP metrics and serves them in the
// Prometheus text format. It satisfies letsencrypt.Observer.
type Meter struct {
	http.Handler

	registry *prometheus.Registry

	uptime      prometheus.GaugeFunc
	challenges  *prometheus.CounterVec
	validations *prometheus.CounterVec
	downloads   *prometheus.CounterVec
	issuances   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a Meter with its own registry.
func New() *Meter {
	startedAt := time.Now()

	m := &Meter{
		registry: prometheus.NewRegistry(),
		uptime: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts(opts("", "uptime_seconds", "Number of seconds since service start")),
			func() float64 { return time.Since(startedAt).Seconds() },
		),
		challenges:  newCounterVec("acme", "challenges_started_total", "Challenges begun, by method", "method"),
		validations: newCounterVec("acme", "validation_attempts_total", "CA validation attempts, by attempt number", "attempt"),
		downloads:   newCounterVec("acme", "download_attempts_total", "Certificate download attempts, by attempt number", "attempt"),
		issuances:   newCounterVec("acme", "issuances_total", "Finished issuances, by method and outcome", "method", "success"),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "acme",
				Name:      "issuance_duration_seconds",
				Help:      "Time from challenge completion to stored certificate",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"method"},
		),
		requests: newCounterVec("http", "requests_total", "HTTP requests, by method, route and status", "method", "route", "status"),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		m.uptime,
		m.challenges,
		m.validations,
		m.downloads,
		m.issuances,
		m.duration,
		m.requests,
		m.latency,
	)

	m.Handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry:            m.registry,
		Timeout:             5 * time.Second,
		MaxRequestsInFlight: 10,
	})
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Meter) Registry() *prometheus.Registry { return m.registry }

func (m *Meter) ChallengeStarted(_, method string) {
	m.challenges.WithLabelValues(method).Inc()
}

func (m *Meter) ValidationAttempt(_ string, attempt int) {
	m.validations.WithLabelValues(strconv.Itoa(attempt)).Inc()
}

func (m *Meter) DownloadAttempt(_ string, attempt int) {
	m.downloads.WithLabelValues(strconv.Itoa(attempt)).Inc()
}

// IssuanceFinished counts the outcome. Duration is recorded for successes only.
func (m *Meter) IssuanceFinished(_, method string, err error, elapsed time.Duration) {
	m.issuances.WithLabelValues(method, strconv.FormatBool(err == nil)).Inc()
	if err == nil {
		m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
}

// ObserveRequest records one served HTTP request. route should be the
// route pattern, not the raw path, to keep label cardinality bounded.
func (m *Meter) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func newCounterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts(opts(subsystem, name, help)), labels)
}

func opts(subsystem, name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}
}
