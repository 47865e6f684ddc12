// Package component defines how runnable pieces of the service are described,
// created and managed.
//
// A component implements Discoverable so the runtime can inspect its ports,
// configuration schema and health, and usually LifecycleComponent so it can be
// initialized, started with a context and stopped with a timeout.
//
// Components are created by factories registered in a Registry:
//
//	registry := component.NewRegistry()
//	if err := clientmanager.Register(registry); err != nil {
//	    return err
//	}
//	comp, err := registry.CreateComponent("client-manager", cfg, component.Dependencies{
//	    NATSClient:      natsClient,
//	    MetricsRegistry: metricsRegistry,
//	    Logger:          logger,
//	})
//
// Factories receive their configuration as raw JSON and should decode it with
// SafeUnmarshal, which bounds its size and shape before decoding and runs the
// config's Validate method afterwards. Factories never perform I/O.
//
// # Ports
//
// A Port pairs a name and direction with a transport binding: NATSPort for a
// core NATS subject and JetStreamPort for a stream. PortConfig lets
// deployments rebind default ports by name through MergePortConfigs.
package component
