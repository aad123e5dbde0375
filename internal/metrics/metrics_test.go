package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Login(ResultSuccess)
	m.Login(ResultFailure)
	m.Login(ResultFailure)
	m.Signup(ResultConflict)
	m.Gate(DecisionRedirect)

	assert.InDelta(t, 1, testutil.ToFloat64(m.LoginsTotal.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.LoginsTotal.WithLabelValues(ResultFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SignupsTotal.WithLabelValues(ResultConflict)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GateDecisions.WithLabelValues(DecisionRedirect)), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Login(ResultSuccess)
		m.Signup(ResultSuccess)
		m.Gate(DecisionPass)
	})
}

func TestDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
