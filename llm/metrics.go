package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for LLM calls. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefwork_llm_requests_total",
			Help: "LLM completion calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefwork_llm_retries_total",
			Help: "LLM call retries by provider and error kind.",
		}, []string{"provider", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "briefwork_llm_request_duration_seconds",
			Help:    "Wall time of LLM completion calls including retries.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"provider"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.retries, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(provider ProviderName, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(provider), outcome).Inc()
	m.duration.WithLabelValues(string(provider)).Observe(d.Seconds())
}

func (m *Metrics) retried(provider ProviderName, kind ErrorKind) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(string(provider), string(kind)).Inc()
}
