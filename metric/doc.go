// Package metric provides the Prometheus registry and HTTP endpoint shared by
// the client manager's components.
//
// MetricsRegistry carries a small set of core metrics (messages received,
// processed and published, errors, health, NATS connection state). Packages
// add their own collectors with Register, which keys them "<owner>.<name>"
// so the same metric cannot be registered twice:
//
//	registry := metric.NewMetricsRegistry()
//	events := prometheus.NewCounterVec(prometheus.CounterOpts{
//	    Namespace: "clientmanager",
//	    Subsystem: "engine",
//	    Name:      "events_total",
//	    Help:      "Total number of lifecycle events handled",
//	}, []string{"kind", "outcome"})
//	err := registry.Register("engine", map[string]prometheus.Collector{"events": events})
//	if err != nil {
//	    return err
//	}
//
// Server exposes the registry at the configured path and a /health endpoint
// whose result can be tied to component health with SetHealthCheck.
//
// Packages that take a *MetricsRegistry treat nil as "metrics disabled";
// their record helpers are nil-safe.
package metric
