// Package metrics は認証まわりの Prometheus メトリクスを提供します。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ラベル値
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultConflict = "conflict"
	ResultLocked   = "locked"
	ResultError    = "error"

	DecisionPass     = "pass"
	DecisionRedirect = "redirect"
)

// Metrics は postboard のカウンター群です。nil のまま使っても何もしません。
type Metrics struct {
	LoginsTotal   *prometheus.CounterVec
	SignupsTotal  *prometheus.CounterVec
	GateDecisions *prometheus.CounterVec
}

// New はカウンターを作成して reg に登録します。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postboard_auth_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		SignupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postboard_auth_signups_total",
				Help: "Total number of signup attempts by result",
			},
			[]string{"result"},
		),
		GateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postboard_gate_decisions_total",
				Help: "Total number of access gate decisions",
			},
			[]string{"decision"},
		),
	}

	reg.MustRegister(m.LoginsTotal)
	reg.MustRegister(m.SignupsTotal)
	reg.MustRegister(m.GateDecisions)

	return m
}

// Login はログイン結果を記録します。
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// Signup はサインアップ結果を記録します。
func (m *Metrics) Signup(result string) {
	if m == nil {
		return
	}
	m.SignupsTotal.WithLabelValues(result).Inc()
}

// Gate はアクセスゲートの判定を記録します。
func (m *Metrics) Gate(decision string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(decision).Inc()
}
