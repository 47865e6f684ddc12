package clientmanager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/clientmanager/metric"
)

// processorMetrics holds Prometheus metrics for the client manager processor.
// Message counts go to the shared core metrics; the queue and publish
// failures are specific to this processor.
type processorMetrics struct {
	core *metric.Metrics

	queueDepth    prometheus.Gauge
	rejected      *prometheus.CounterVec // By port and reason (invalid/decode/queue_full)
	publishFailed *prometheus.CounterVec // By target
}

// newProcessorMetrics creates and registers processor metrics with the provided registry.
func newProcessorMetrics(registry *metric.MetricsRegistry) (*processorMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &processorMetrics{
		core: registry.CoreMetrics(),

		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clientmanager",
			Subsystem: "processor",
			Name:      "queue_depth",
			Help:      "Events waiting for the engine loop",
		}),

		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clientmanager",
			Subsystem: "processor",
			Name:      "rejected_total",
			Help:      "Inbound messages dropped before reaching the engine",
		}, []string{"port", "reason"}),

		publishFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clientmanager",
			Subsystem: "processor",
			Name:      "publish_failures_total",
			Help:      "Commands that could not be delivered",
		}, []string{"target"}),
	}

	if err := registry.Register("processor", map[string]prometheus.Collector{
		"queue_depth":      m.queueDepth,
		"rejected":         m.rejected,
		"publish_failures": m.publishFailed,
	}); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *processorMetrics) recordReceived(kind string) {
	if m == nil {
		return
	}
	m.core.RecordMessageReceived(serviceName, kind)
}

func (m *processorMetrics) recordProcessed(kind, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.core.RecordMessageProcessed(serviceName, kind, outcome)
	m.core.RecordProcessingDuration(serviceName, kind, duration)
}

func (m *processorMetrics) recordRejected(port, reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(port, reason).Inc()
	m.core.RecordError(serviceName, reason)
}

func (m *processorMetrics) recordPublished(subject string) {
	if m == nil {
		return
	}
	m.core.RecordMessagePublished(serviceName, subject)
}

func (m *processorMetrics) recordPublishFailed(target string) {
	if m == nil {
		return
	}
	m.publishFailed.WithLabelValues(target).Inc()
	m.core.RecordError(serviceName, "publish")
}

func (m *processorMetrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *processorMetrics) recordHealth(healthy bool) {
	if m == nil {
		return
	}
	m.core.RecordHealthStatus(serviceName, healthy)
}
