package clientmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/clientmanager/component"
	"github.com/c360/clientmanager/engine"
	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/message"
	"github.com/c360/clientmanager/natsclient"
	"github.com/c360/clientmanager/query"
)

// serviceName labels the core metrics this processor records.
const serviceName = "client-manager"

// streamEnsurer is implemented by transports that can create JetStream streams.
type streamEnsurer interface {
	EnsureStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// request is one unit of work for the engine loop: an event to handle or a
// snapshot to take.
type request struct {
	event    engine.Event
	port     string
	snapshot chan engine.Snapshot
}

// loop is the state of one Start/Stop cycle.
type loop struct {
	requests chan request
	quit     chan struct{}
	cancel   context.CancelFunc
	subs     []natsclient.Subscription
	quitOnce sync.Once
}

// stop closes quit. Safe to call again after a timed-out Stop.
func (lp *loop) stop() {
	lp.quitOnce.Do(func() { close(lp.quit) })
}

// release drops every subscription, returning the first error.
func (lp *loop) release() error {
	var first error
	for _, sub := range lp.subs {
		if err := sub.Unsubscribe(); err != nil && first == nil {
			first = err
		}
	}
	lp.subs = nil
	return first
}

// Processor feeds lifecycle events from NATS into a coordination engine and
// publishes the engine's commands. A single goroutine owns the engine.
type Processor struct {
	name      string
	config    Config
	inputs    []component.Port
	outputs   []component.Port
	transport Transport
	engine    *engine.Engine
	emitter   *natsEmitter
	logger    *slog.Logger

	// Lifecycle management
	current     *loop
	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup

	// Counters for DataFlow and Health
	messagesReceived int64
	bytesReceived    int64
	errors           int64
	lastError        atomic.Value // string
	lastActivity     time.Time

	metrics *processorMetrics
}

// NewProcessor creates a client manager processor from configuration
func NewProcessor(
	rawConfig json.RawMessage, deps component.Dependencies,
) (component.Discoverable, error) {
	config := DefaultConfig()
	if err := component.SafeUnmarshal(rawConfig, &config); err != nil {
		return nil, errors.WrapInvalid(err, "ClientManagerProcessor", "NewProcessor", "config unmarshal")
	}

	services, err := config.buildServices()
	if err != nil {
		return nil, errors.WrapInvalid(err, "ClientManagerProcessor", "NewProcessor", "build service catalog")
	}

	logger := deps.GetLoggerWithComponent(serviceName)

	metrics, err := newProcessorMetrics(deps.MetricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize client manager metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	inputs, outputs := config.resolvePorts()

	p := &Processor{
		name:    serviceName,
		config:  config,
		inputs:  inputs,
		outputs: outputs,
		logger:  logger,
		metrics: metrics,
	}
	p.emitter = &natsEmitter{
		routes:  routesFromPorts(outputs),
		retry:   defaultPublishRetry(),
		logger:  logger,
		metrics: metrics,
	}
	if deps.NATSClient != nil {
		p.useTransport(deps.NATSClient)
	}
	p.engine = engine.New(query.NewTextParser(), services, p.emitter, logger, deps.MetricsRegistry)

	return p, nil
}

// useTransport sets the transport for both subscriptions and commands.
func (p *Processor) useTransport(t Transport) {
	p.transport = t
	p.emitter.transport = t
}

// Initialize checks that every command target has an output port
func (p *Processor) Initialize() error {
	for _, target := range engine.Targets() {
		if _, ok := p.emitter.routes[target]; !ok {
			return errors.WrapInvalid(
				fmt.Errorf("%w: no output port for target %q", errors.ErrMissingConfig, target),
				"ClientManagerProcessor", "Initialize", "check output ports")
		}
	}
	return nil
}

// Start ensures the notification stream, starts the engine loop and
// subscribes to every input port
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "ClientManagerProcessor", "Start", "check running state")
	}

	if p.transport == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "ClientManagerProcessor", "Start", "NATS client required")
	}

	if err := p.ensureStreams(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	lp := &loop{
		requests: make(chan request, p.config.QueueSize),
		quit:     make(chan struct{}),
		cancel:   cancel,
	}

	p.wg.Add(1)
	go p.run(loopCtx, lp)

	for _, port := range p.inputs {
		subject := port.Subject()
		if subject == "" {
			continue
		}
		name := port.Name

		sub, err := p.transport.Subscribe(ctx, subject, func(msgCtx context.Context, data []byte) {
			p.handleMessage(msgCtx, lp, name, data)
		})
		if err != nil {
			p.logger.Error("Failed to subscribe to NATS subject",
				"port", name,
				"subject", subject,
				"error", err)
			if relErr := lp.release(); relErr != nil {
				p.logger.Warn("Failed to release subscriptions", "error", relErr)
			}
			lp.stop()
			cancel()
			p.wg.Wait()
			return errors.WrapTransient(err, "ClientManagerProcessor", "Start", fmt.Sprintf("subscribe to %s", subject))
		}
		lp.subs = append(lp.subs, sub)

		p.logger.Debug("Subscribed to NATS subject",
			"port", name,
			"subject", subject)
	}

	p.mu.Lock()
	p.current = lp
	p.running = true
	p.startTime = time.Now()
	p.mu.Unlock()
	p.metrics.recordHealth(true)

	routes := make(map[string]string, len(p.emitter.routes))
	for target, r := range p.emitter.routes {
		routes[string(target)] = r.String()
	}
	p.logger.Info("Client manager processor started",
		"inputs", len(p.inputs),
		"routes", routes,
		"queue_size", p.config.QueueSize)

	return nil
}

// ensureStreams creates the JetStream streams behind JetStream output ports.
func (p *Processor) ensureStreams(ctx context.Context) error {
	ensurer, ok := p.transport.(streamEnsurer)
	if !ok {
		return nil
	}

	for _, port := range p.outputs {
		js, ok := port.Config.(component.JetStreamPort)
		if !ok {
			continue
		}

		cfg := jetstream.StreamConfig{
			Name:     js.StreamName,
			Subjects: js.Subjects,
			Storage:  jetstream.FileStorage,
		}
		if js.Storage == "memory" {
			cfg.Storage = jetstream.MemoryStorage
		}

		if _, err := ensurer.EnsureStream(ctx, cfg); err != nil {
			return errors.WrapTransient(err, "ClientManagerProcessor", "Start",
				fmt.Sprintf("ensure stream %s", js.StreamName))
		}
		p.logger.Debug("Stream ready", "stream", js.StreamName, "subjects", js.Subjects)
	}
	return nil
}

// Stop releases the subscriptions, drains queued events and stops the engine
// loop. After a timeout the processor still counts as running and Stop may be
// called again.
func (p *Processor) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.running {
		return nil
	}

	p.mu.Lock()
	lp := p.current
	p.mu.Unlock()

	if err := lp.release(); err != nil {
		p.logger.Warn("Failed to release subscriptions", "error", err)
	}
	lp.stop()

	waitCh := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(timeout):
		lp.cancel()
		return errors.WrapTransient(
			fmt.Errorf("shutdown timeout after %v", timeout),
			"ClientManagerProcessor", "Stop", "graceful shutdown")
	}
	lp.cancel()

	p.mu.Lock()
	p.running = false
	p.current = nil
	p.mu.Unlock()
	p.metrics.recordHealth(false)

	p.logger.Info("Client manager processor stopped")
	return nil
}

// run owns the engine. It handles requests in arrival order and, on quit,
// drains what is already queued before returning.
func (p *Processor) run(ctx context.Context, lp *loop) {
	defer p.wg.Done()

	for {
		select {
		case req := <-lp.requests:
			p.process(ctx, lp, req)
		case <-lp.quit:
			for {
				select {
				case req := <-lp.requests:
					p.process(ctx, lp, req)
				default:
					p.engine.LogState(ctx)
					return
				}
			}
		}
	}
}

func (p *Processor) process(ctx context.Context, lp *loop, req request) {
	p.metrics.setQueueDepth(len(lp.requests))

	if req.snapshot != nil {
		req.snapshot <- p.engine.Snapshot()
		return
	}

	start := time.Now()
	outcome, err := p.engine.Handle(ctx, req.event)
	p.metrics.recordProcessed(req.event.Kind(), outcome.String(), time.Since(start))

	if err != nil {
		p.recordError(err)
		p.logger.Warn("Event rejected",
			"port", req.port,
			"kind", req.event.Kind(),
			"id", req.event.CorrelationID(),
			"error", err)
		return
	}

	p.logger.Debug("Event handled",
		"port", req.port,
		"kind", req.event.Kind(),
		"id", req.event.CorrelationID(),
		"outcome", outcome.String())
}

// handleMessage validates and decodes one inbound message and queues it for
// the engine loop. It blocks while the queue is full until ctx expires.
func (p *Processor) handleMessage(ctx context.Context, lp *loop, port string, data []byte) {
	atomic.AddInt64(&p.messagesReceived, 1)
	atomic.AddInt64(&p.bytesReceived, int64(len(data)))
	p.mu.Lock()
	p.lastActivity = time.Now()
	p.mu.Unlock()

	if err := message.ValidateEnvelope(data); err != nil {
		p.reject(port, "invalid", err)
		return
	}

	tag := eventTag(port, data)
	event, err := Decode(tag, data)
	if err != nil {
		p.reject(port, "decode", err)
		return
	}
	p.metrics.recordReceived(event.Kind())

	req := request{event: event, port: port}
	select {
	case <-lp.quit:
		p.reject(port, "stopped", errors.WrapTransient(errors.ErrShuttingDown,
			"ClientManagerProcessor", "handleMessage", "queue event"))
		return
	case lp.requests <- req:
		p.metrics.setQueueDepth(len(lp.requests))
		return
	default:
	}

	select {
	case lp.requests <- req:
	case <-lp.quit:
		p.reject(port, "stopped", errors.WrapTransient(errors.ErrShuttingDown,
			"ClientManagerProcessor", "handleMessage", "queue event"))
	case <-ctx.Done():
		p.reject(port, "queue_full", errors.WrapTransient(
			fmt.Errorf("%w: %v", errors.ErrQueueFull, ctx.Err()),
			"ClientManagerProcessor", "handleMessage", "queue event"))
	}
}

func (p *Processor) reject(port, reason string, err error) {
	p.recordError(err)
	p.metrics.recordRejected(port, reason)
	p.logger.Debug("Dropped inbound message",
		"port", port,
		"reason", reason,
		"error", err)
}

func (p *Processor) recordError(err error) {
	atomic.AddInt64(&p.errors, 1)
	p.lastError.Store(err.Error())
}

// Snapshot returns a copy of the engine state, taken on the engine loop
// after every event queued before the call.
func (p *Processor) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	p.mu.RLock()
	lp := p.current
	p.mu.RUnlock()

	if lp == nil {
		return engine.Snapshot{}, errors.WrapFatal(errors.ErrNotStarted, "ClientManagerProcessor", "Snapshot", "check running state")
	}

	reply := make(chan engine.Snapshot, 1)
	select {
	case lp.requests <- request{snapshot: reply}:
	case <-lp.quit:
		return engine.Snapshot{}, errors.WrapTransient(errors.ErrShuttingDown, "ClientManagerProcessor", "Snapshot", "queue request")
	case <-ctx.Done():
		return engine.Snapshot{}, errors.WrapTransient(ctx.Err(), "ClientManagerProcessor", "Snapshot", "queue request")
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return engine.Snapshot{}, errors.WrapTransient(ctx.Err(), "ClientManagerProcessor", "Snapshot", "await snapshot")
	}
}

// Discoverable interface implementation

// Meta returns metadata describing this processor component.
func (p *Processor) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "processor",
		Description: "Coordinates publishers, subscriber queries and buffer streams for the CEP pipeline",
		Version:     "0.1.0",
	}
}

// InputPorts returns the NATS input ports this processor subscribes to.
func (p *Processor) InputPorts() []component.Port {
	return append([]component.Port(nil), p.inputs...)
}

// OutputPorts returns the ports commands are published on.
func (p *Processor) OutputPorts() []component.Port {
	return append([]component.Port(nil), p.outputs...)
}

// ConfigSchema returns the configuration schema for this processor.
func (p *Processor) ConfigSchema() component.ConfigSchema {
	return clientManagerSchema
}

// Health returns the current health status of this processor.
func (p *Processor) Health() component.HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := component.HealthStatus{
		Healthy:    p.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&p.errors)),
	}
	if p.running {
		status.Uptime = time.Since(p.startTime)
	}
	if last, ok := p.lastError.Load().(string); ok {
		status.LastError = last
	}
	return status
}

// DataFlow returns current data flow metrics for this processor.
func (p *Processor) DataFlow() component.FlowMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	received := atomic.LoadInt64(&p.messagesReceived)
	errorCount := atomic.LoadInt64(&p.errors)

	flow := component.FlowMetrics{LastActivity: p.lastActivity}
	if received > 0 {
		flow.ErrorRate = float64(errorCount) / float64(received)
	}
	if p.running {
		if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
			flow.MessagesPerSecond = float64(received) / elapsed
			flow.BytesPerSecond = float64(atomic.LoadInt64(&p.bytesReceived)) / elapsed
		}
	}
	return flow
}

var minQueueSize = 1

// clientManagerSchema defines the configuration schema for the client manager processor
var clientManagerSchema = component.ConfigSchema{
	Properties: map[string]component.PropertySchema{
		"ports": {
			Type:        "ports",
			Description: "Port configuration; entries override defaults by name",
			Category:    "basic",
		},
		"catalog": {
			Type:        "string",
			Description: "Known services as Type:content,types;Type2:...",
			Default:     DefaultConfig().Catalog,
			Category:    "basic",
		},
		"services": {
			Type:        "array",
			Description: "Extra services as {type, content_types} entries",
			Category:    "basic",
		},
		"queue_size": {
			Type:        "int",
			Description: "Events buffered ahead of the engine loop",
			Default:     DefaultQueueSize,
			Minimum:     &minQueueSize,
			Category:    "advanced",
		},
	},
}

// Register registers the client manager processor with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "client-manager",
		Factory:     NewProcessor,
		Schema:      clientManagerSchema,
		Type:        "processor",
		Protocol:    "nats",
		Domain:      "cep",
		Description: "Publisher and query lifecycle coordination for the CEP pipeline",
		Version:     "0.1.0",
	})
}
