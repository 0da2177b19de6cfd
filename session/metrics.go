package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric result label values
const (
	resultOK       = "ok"
	resultError    = "error"
	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// Metrics holds Prometheus metrics for OMP sessions. Metrics may be
// shared by many sessions. A nil *Metrics records nothing.
type Metrics struct {
	// ConnectionsTotal counts connection attempts by result ("ok", "error")
	ConnectionsTotal *prometheus.CounterVec
	// AuthenticationsTotal counts <authenticate> exchanges by result
	// ("accepted", "rejected", "error")
	AuthenticationsTotal *prometheus.CounterVec
	// CommandsTotal counts executed commands by result: "ok" for a status
	// 200 response, "failed" for any other status, "error" if no
	// response was read.
	CommandsTotal *prometheus.CounterVec
	// CommandDuration observes Execute latency, including any
	// connection and authentication.
	CommandDuration prometheus.Histogram
}

// NewMetrics returns Metrics registered with reg. It panics if
// registration fails.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omp_connections_total",
				Help: "Total OMP server connection attempts by result",
			},
			[]string{"result"},
		),
		AuthenticationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omp_authentications_total",
				Help: "Total OMP authenticate exchanges by result",
			},
			[]string{"result"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omp_commands_total",
				Help: "Total OMP commands executed by result",
			},
			[]string{"result"},
		),
		CommandDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "omp_command_duration_seconds",
				Help:    "OMP command duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.ConnectionsTotal, m.AuthenticationsTotal, m.CommandsTotal, m.CommandDuration)
	return m
}

func (m *Metrics) recordConnect(err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.ConnectionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) recordAuthenticate(result string) {
	if m == nil {
		return
	}
	m.AuthenticationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) recordCommand(result string, start time.Time) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(result).Inc()
	m.CommandDuration.Observe(time.Since(start).Seconds())
}
