package obs

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveClaim("checked", "success", 3*time.Millisecond)
	m.ObserveClaim("checked", "success", time.Millisecond)
	m.ObserveClaim("unchecked", "exhausted", time.Millisecond)
	m.ObserveIngest("inserted")
	m.ObserveRoundOpen()
	m.SetRemaining(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ClaimTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClaimTotal.WithLabelValues("exhausted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues("inserted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoundOpen))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.KeysRemaining))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveClaim("checked", "success", time.Millisecond)
		m.ObserveIngest("skipped")
		m.ObserveRoundOpen()
		m.SetRemaining(1)
	})
}
