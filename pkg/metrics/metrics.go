// Package metrics exports player activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/mp3.go/pkg/yx5300"
)

// NewRegistry creates a registry with Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics in reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// PlayerMetrics implements yx5300.Observer.
type PlayerMetrics struct {
	Requests       *prometheus.CounterVec // labels: command
	Statuses       *prometheus.CounterVec // labels: status
	DiscardedBytes prometheus.Counter
	Volume         prometheus.Gauge
}

// NewPlayerMetrics creates and registers PlayerMetrics.
func NewPlayerMetrics(reg prometheus.Registerer) *PlayerMetrics {
	m := &PlayerMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mp3_requests_total",
			Help: "Requests sent to the MP3 module.",
		}, []string{"command"}),
		Statuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mp3_statuses_total",
			Help: "Statuses reported, including timeouts and checksum errors.",
		}, []string{"status"}),
		DiscardedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mp3_discarded_bytes_total",
			Help: "Received bytes dropped while resynchronizing.",
		}),
		Volume: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mp3_volume",
			Help: "Last volume reported by the module.",
		}),
	}
	reg.MustRegister(m.Requests, m.Statuses, m.DiscardedBytes, m.Volume)
	return m
}

// RequestSent implements yx5300.Observer.
func (m *PlayerMetrics) RequestSent(req yx5300.Request) {
	m.Requests.WithLabelValues(req.Command.String()).Inc()
}

// StatusReported implements yx5300.Observer.
func (m *PlayerMetrics) StatusReported(st yx5300.Status) {
	m.Statuses.WithLabelValues(st.Code.String()).Inc()
	if st.Code == yx5300.StatusVolume {
		m.Volume.Set(float64(st.Data))
	}
}

// BytesDiscarded implements yx5300.Observer.
func (m *PlayerMetrics) BytesDiscarded(n int) {
	m.DiscardedBytes.Add(float64(n))
}
