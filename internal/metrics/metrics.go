// Package metrics defines the Prometheus collectors exported by the console.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for device requests
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport_error"
	OutcomeStatus    = "status_error"
)

// Metrics groups the console's collectors
type Metrics struct {
	DeviceRequests *prometheus.CounterVec
	DeviceLatency  *prometheus.HistogramVec
	WifiRSSI       prometheus.Gauge
	WSClients      prometheus.Gauge
	Actions        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DeviceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camconsole_device_requests_total",
			Help: "Requests issued to the camera control API",
		}, []string{"endpoint", "outcome"}),
		DeviceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "camconsole_device_request_seconds",
			Help:    "Latency of camera control API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		WifiRSSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camconsole_wifi_rssi_dbm",
			Help: "Last WiFi RSSI reported by the camera",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camconsole_websocket_clients",
			Help: "Connected operator browsers",
		}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camconsole_operator_actions_total",
			Help: "Operator actions received over the websocket",
		}, []string{"type"}),
	}

	reg.MustRegister(m.DeviceRequests, m.DeviceLatency, m.WifiRSSI, m.WSClients, m.Actions)
	return m
}

// ObserveRequest records one device request. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DeviceRequests.WithLabelValues(endpoint, outcome).Inc()
	m.DeviceLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// SetRSSI records the last RSSI sample. Safe on a nil receiver.
func (m *Metrics) SetRSSI(rssi int) {
	if m == nil {
		return
	}
	m.WifiRSSI.Set(float64(rssi))
}

// AddClients adjusts the connected browser count. Safe on a nil receiver.
func (m *Metrics) AddClients(delta int) {
	if m == nil {
		return
	}
	m.WSClients.Add(float64(delta))
}

// ObserveAction counts one operator action. Safe on a nil receiver.
func (m *Metrics) ObserveAction(kind string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(kind).Inc()
}
