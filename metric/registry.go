package metric

import (
	stderrors "errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/clientmanager/errors"
)

// MetricsRegistry is the Prometheus registry shared by every component: the
// core metrics, the Go runtime collectors and whatever components add with
// Register.
type MetricsRegistry struct {
	prom *prometheus.Registry
	core *Metrics

	mu    sync.Mutex
	owned map[string]prometheus.Collector // "<owner>.<name>"
}

// NewMetricsRegistry creates a registry with the core metrics registered.
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		prom:  prometheus.NewRegistry(),
		core:  NewMetrics(),
		owned: make(map[string]prometheus.Collector),
	}
	r.prom.MustRegister(r.core.collectors()...)
	r.prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry is what the metrics endpoint gathers from.
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prom
}

// CoreMetrics returns the metrics every component records into.
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.core
}

// Register adds owner's collectors, keyed by name. Names are registered in
// sorted order and registration stops at the first conflict; a key already
// taken, or a metric Prometheus already knows, is an invalid error.
func (r *MetricsRegistry) Register(owner string, named map[string]prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range slices.Sorted(maps.Keys(named)) {
		key := owner + "." + name
		if _, taken := r.owned[key]; taken {
			return errors.WrapInvalid(fmt.Errorf("metric %s already registered", key),
				"MetricsRegistry", "Register", "duplicate check")
		}

		if err := r.prom.Register(named[name]); err != nil {
			var dup prometheus.AlreadyRegisteredError
			if stderrors.As(err, &dup) {
				return errors.WrapInvalid(err, "MetricsRegistry", "Register", "register "+key)
			}
			return errors.WrapFatal(err, "MetricsRegistry", "Register", "register "+key)
		}
		r.owned[key] = named[name]
	}
	return nil
}
