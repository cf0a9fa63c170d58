package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeAssembled = "assembled"
	OutcomeDropped   = "dropped"

	RunExported = "exported"
	RunEmpty    = "empty"
	RunFailed   = "failed"
)

// Metrics groups the collectors of one registry. Tests build their own so
// counts never leak between cases.
type Metrics struct {
	Registry    *prometheus.Registry
	Records     *prometheus.CounterVec
	Runs        *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	HTTP        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "reviewsheet", Name: "records_total", Help: "Review bundles by assembly outcome."},
			[]string{"platform", "outcome"}, // outcome: assembled|dropped
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "reviewsheet", Name: "runs_total", Help: "Extraction runs by result."},
			[]string{"platform", "result"}, // result: exported|empty|failed
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "reviewsheet", Name: "run_duration_seconds",
				Help:    "Extraction run duration seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"platform"},
		),
		HTTP: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "reviewsheet", Name: "http_requests_total", Help: "HTTP requests."},
			[]string{"route", "method", "status"},
		),
	}
	m.Registry.MustRegister(m.Records, m.Runs, m.RunDuration, m.HTTP)
	return m
}

func (m *Metrics) ObserveRecord(platform, outcome string) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) ObserveRun(platform, result string, dur time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(platform, result).Inc()
	m.RunDuration.WithLabelValues(platform).Observe(dur.Seconds())
}

func (m *Metrics) ObserveHTTP(route, method string, status int) {
	if m == nil {
		return
	}
	m.HTTP.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
