// Package metrics exposes simulation stats as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/timothychou/netsim/internal/stats"
)

const (
	namespace = "netsim"
)

// Label names used across the collector's vectors.
const (
	labelEntity = "id"
)

// Collector implements stats.Sink by recording every sample against a
// Prometheus metric chosen by its Kind, labeled by entity id. Counters
// (bytes, loss) accumulate; gauges (window, RTT, buffer occupancy) report
// the latest observation.
type Collector struct {
	BytesSent     *prometheus.CounterVec
	BytesReceived *prometheus.CounterVec
	RTT           *prometheus.GaugeVec
	WindowSize    *prometheus.GaugeVec

	BytesFlowed     *prometheus.CounterVec
	BufferOccupancy *prometheus.GaugeVec
	PacketsLost     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics against reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()
	reg.MustRegister(
		c.BytesSent,
		c.BytesReceived,
		c.RTT,
		c.WindowSize,
		c.BytesFlowed,
		c.BufferOccupancy,
		c.PacketsLost,
	)
	return c
}

func newMetrics() *Collector {
	labels := []string{labelEntity}
	return &Collector{
		BytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "bytes_sent_total",
			Help:      "Total bytes sent, by flow id or host id.",
		}, labels),

		BytesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "bytes_received_total",
			Help:      "Total bytes received, by flow id or host id.",
		}, labels),

		RTT: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "rtt_ms",
			Help:      "Most recent RTT sample for a flow, in milliseconds.",
		}, labels),

		WindowSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "window_size_packets",
			Help:      "Most recent congestion window for a flow, in packets.",
		}, labels),

		BytesFlowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "bytes_flowed_total",
			Help:      "Total bytes serialized across a link.",
		}, labels),

		BufferOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "buffer_occupancy_bytes",
			Help:      "Most recent buffer occupancy for a link, in bytes.",
		}, labels),

		PacketsLost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "packets_lost_total",
			Help:      "Total packets tail-dropped or undeliverable due to a missing route.",
		}, labels),
	}
}

// Sample implements stats.Sink.
func (c *Collector) Sample(s stats.Sample) {
	switch s.Kind {
	case stats.BytesSent:
		c.BytesSent.WithLabelValues(s.EntityID).Add(s.Value)
	case stats.BytesReceived:
		c.BytesReceived.WithLabelValues(s.EntityID).Add(s.Value)
	case stats.RTTSample:
		c.RTT.WithLabelValues(s.EntityID).Set(s.Value)
	case stats.WindowSize:
		c.WindowSize.WithLabelValues(s.EntityID).Set(s.Value)
	case stats.BytesFlowed:
		c.BytesFlowed.WithLabelValues(s.EntityID).Add(s.Value)
	case stats.BufferOccupancy:
		c.BufferOccupancy.WithLabelValues(s.EntityID).Set(s.Value)
	case stats.LostPackets:
		c.PacketsLost.WithLabelValues(s.EntityID).Add(s.Value)
	}
}

var _ stats.Sink = (*Collector)(nil)
