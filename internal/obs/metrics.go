package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ClaimTotal    *prometheus.CounterVec   // result=success|already_claimed|exhausted|no_round|ineligible|failed|unavailable
	ClaimLatency  *prometheus.HistogramVec // mode=checked|unchecked
	IngestTotal   *prometheus.CounterVec   // outcome=inserted|already_present|skipped
	RoundOpen     prometheus.Counter
	KeysRemaining prometheus.Gauge
}

// NewMetrics registers the collectors on reg. A nil reg means the default
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ClaimTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keybot_claim_total",
				Help: "Total claim attempts by result",
			},
			[]string{"result"},
		),
		ClaimLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keybot_claim_latency_ms",
				Help:    "Latency of claim operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms .. ~2048ms
			},
			[]string{"mode"},
		),
		IngestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keybot_ingest_inserted_total",
				Help: "Candidate keys seen by ingestion, by outcome",
			},
			[]string{"outcome"},
		),
		RoundOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keybot_round_open_total",
			Help: "Total number of rounds opened",
		}),
		KeysRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keybot_keys_remaining",
			Help: "Unclaimed keys as of the last claim or sync",
		}),
	}

	reg.MustRegister(
		m.ClaimTotal,
		m.ClaimLatency,
		m.IngestTotal,
		m.RoundOpen,
		m.KeysRemaining,
	)

	return m
}

// The helpers below accept a nil receiver so callers can run without metrics.

func (m *Metrics) ObserveClaim(mode, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.ClaimTotal.WithLabelValues(result).Inc()
	m.ClaimLatency.WithLabelValues(mode).Observe(float64(took.Microseconds()) / 1000)
}

func (m *Metrics) ObserveIngest(outcome string) {
	if m == nil {
		return
	}
	m.IngestTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRoundOpen() {
	if m == nil {
		return
	}
	m.RoundOpen.Inc()
}

func (m *Metrics) SetRemaining(n int) {
	if m == nil {
		return
	}
	m.KeysRemaining.Set(float64(n))
}
