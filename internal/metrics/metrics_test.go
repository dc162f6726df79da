package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("/api/values", OutcomeOK, 10*time.Millisecond)
	m.ObserveRequest("/api/values", OutcomeOK, 20*time.Millisecond)
	m.ObserveRequest("/api/wifi", OutcomeTransport, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DeviceRequests.WithLabelValues("/api/values", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeviceRequests.WithLabelValues("/api/wifi", OutcomeTransport)))
}

func TestSetRSSI(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetRSSI(-63)
	assert.Equal(t, -63.0, testutil.ToFloat64(m.WifiRSSI))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/api/log", OutcomeOK, time.Second)
		m.SetRSSI(-40)
		m.AddClients(1)
		m.ObserveAction("adjust")
	})
}

func TestClientsAndActions(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AddClients(1)
	m.AddClients(1)
	m.AddClients(-1)
	m.ObserveAction("toggle")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("toggle")))
}
