package session

import (
	"context"
	"testing"
	"time"

	"github.com/andaru/omp/message"
	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, cv *prometheus.CounterVec, label string) float64 {
	t.Helper()
	counter, err := cv.GetMetricWithLabelValues(label)
	require.NoError(t, err)
	var metric io_prometheus_client.Metric
	require.NoError(t, counter.Write(&metric))
	return metric.GetCounter().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var metric io_prometheus_client.Metric
	require.NoError(t, h.Write(&metric))
	return metric.GetHistogram().GetSampleCount()
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.recordConnect(nil)
		m.recordAuthenticate(resultAccepted)
		m.recordCommand(resultOK, time.Now())
	})
}

func TestMetrics(t *testing.T) {
	a := assert.New(t)
	m := NewMetrics(prometheus.NewRegistry())
	srv := newServer(t)
	ctx := context.Background()

	s := newSession(srv, Config{Username: "admin", Password: "admin"}, WithMetrics(m))
	_, err := s.Execute(ctx, message.Elem("get_tasks"), true)
	require.NoError(t, err)
	_, err = s.Execute(ctx, message.Elem("get_bogus"), false)
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, "admin", "wrong")
	a.Error(err)
	_, err = New(Config{}, WithMetrics(m)).Execute(ctx, message.Elem("get_tasks"), false)
	a.Error(err)

	a.Equal(3.0, counterValue(t, m.ConnectionsTotal, resultOK))
	a.Equal(1.0, counterValue(t, m.ConnectionsTotal, resultError))
	a.Equal(1.0, counterValue(t, m.AuthenticationsTotal, resultAccepted))
	a.Equal(1.0, counterValue(t, m.AuthenticationsTotal, resultRejected))
	a.Equal(0.0, counterValue(t, m.AuthenticationsTotal, resultError))
	a.Equal(1.0, counterValue(t, m.CommandsTotal, resultOK))
	a.Equal(1.0, counterValue(t, m.CommandsTotal, resultFailed))
	a.Equal(1.0, counterValue(t, m.CommandsTotal, resultError))
	a.Equal(uint64(3), histogramCount(t, m.CommandDuration))
}

func TestSessionID(t *testing.T) {
	a := assert.New(t)
	s1, s2 := New(Config{}), New(Config{})
	a.Len(s1.ID(), 36)
	a.NotEqual(s1.ID(), s2.ID())
}
