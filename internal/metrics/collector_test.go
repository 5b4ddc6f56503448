package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/timothychou/netsim/internal/metrics"
	"github.com/timothychou/netsim/internal/stats"
)

func TestNewCollectorRegistersEveryMetric(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	if c.BytesSent == nil || c.BytesReceived == nil || c.RTT == nil || c.WindowSize == nil ||
		c.BytesFlowed == nil || c.BufferOccupancy == nil || c.PacketsLost == nil {
		t.Fatalf("NewCollector left a metric nil: %+v", c)
	}

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestCollectorSampleRoutesByKind(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.Sample(stats.Sample{Kind: stats.BytesSent, EntityID: "f1", Value: 1024})
	c.Sample(stats.Sample{Kind: stats.BytesSent, EntityID: "f1", Value: 1024})
	if got := counterValue(t, c.BytesSent, "f1"); got != 2048 {
		t.Errorf("BytesSent = %v, want 2048", got)
	}

	c.Sample(stats.Sample{Kind: stats.RTTSample, EntityID: "f1", Value: 42})
	c.Sample(stats.Sample{Kind: stats.RTTSample, EntityID: "f1", Value: 50})
	if got := gaugeValue(t, c.RTT, "f1"); got != 50 {
		t.Errorf("RTT = %v, want 50 (gauge should report the latest sample)", got)
	}

	c.Sample(stats.Sample{Kind: stats.LostPackets, EntityID: "L1", Value: 1})
	if got := counterValue(t, c.PacketsLost, "L1"); got != 1 {
		t.Errorf("PacketsLost = %v, want 1", got)
	}

	c.Sample(stats.Sample{Kind: stats.BufferOccupancy, EntityID: "L1", Value: 512})
	if got := gaugeValue(t, c.BufferOccupancy, "L1"); got != 512 {
		t.Errorf("BufferOccupancy = %v, want 512", got)
	}
}

func TestCollectorIgnoresUnknownKind(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	// Must not panic on a sample kind with no matching metric.
	c.Sample(stats.Sample{Kind: stats.Kind(255), EntityID: "f1", Value: 1})
}

func gaugeValue(t *testing.T, vec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	g, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	c, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
