// Package clientmanager coordinates publishers, subscriber queries and buffer
// streams for a CEP (complex event processing) pipeline.
//
// The client manager sits between clients and the processing services. It
// consumes client lifecycle events and answers each with commands for the
// services that do the actual work. It never touches media or events itself.
//
// # Architecture
//
// Events flow one way through three layers:
//
//	NATS subjects ──► processor/clientmanager ──► engine ──► emitter ──► NATS subjects
//	 (lifecycle        (decode, validate,         (state,     (one subject
//	  events)           serialize onto loop)       decisions)  per target)
//
// The engine owns four stores: the publisher directory, the query registry,
// the buffer stream registry and the service registry. Only the processor's
// loop goroutine touches them, so the engine needs no locks.
//
// # Lifecycle Events
//
//   - publisher joined / left: tracks a publisher and tears down its
//     preprocessing when it leaves
//   - query received: parses the query text, derives a buffer stream key from
//     the publisher and required content types, and starts preprocessing,
//     control flow, matching and windowing for it
//   - query deletion requested: removes one subscriber query and stops the
//     buffer stream once no query shares it
//   - service worker announced: extends the content types a service can serve
//
// # Identity
//
// Query ids and buffer stream keys are MD5 hex digests so that downstream
// services computing the same digests agree on them:
//
//	engine.QueryID("sub_1", "my incredible query")
//	// 6962607866718b3cbd13556162c95dd9
//
// # Framework Packages
//
//	component/           - Component interfaces, ports and the factory registry
//	componentregistry/   - Registers every component factory
//	config/              - Viper-backed configuration loading
//	engine/              - The coordination engine and its stores
//	errors/              - Classified errors (invalid, transient, fatal) and retry
//	health/              - Aggregated service health
//	message/             - Event envelope validation and stamping
//	metric/              - Prometheus registry and metrics server
//	natsclient/          - NATS and JetStream client with circuit breaking
//	processor/           - The client manager processor component
//	query/               - Query text clause parsing
//	serviceregistry/     - Service catalog and worker registry
//	testutil/            - Mocks and fixtures for tests
//	types/               - Shared component configuration types
//
// # Binary
//
// The clientmanager binary runs the service, validates configuration and
// publishes hand-written events for wiring checks:
//
//	clientmanager run --config config.yaml
//	clientmanager validate --config config.yaml
//	clientmanager send add-query --subscriber sub_1 --file query.txt
//	clientmanager schema client-manager
package clientmanager
