package engine

import (
	"context"
	"log/slog"

	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/message"
	"github.com/c360/clientmanager/metric"
	"github.com/c360/clientmanager/query"
	"github.com/c360/clientmanager/serviceregistry"
)

// ServiceName prefixes the correlation ids of emitted commands.
const ServiceName = "ClientManager"

// Outcome classifies how a handler disposed of an event.
type Outcome int

const (
	// OutcomeApplied means state changed and commands were emitted.
	OutcomeApplied Outcome = iota
	// OutcomeDuplicate means the entity already existed; nothing changed.
	OutcomeDuplicate
	// OutcomePublisherMissing means a query named a publisher that has not joined.
	OutcomePublisherMissing
	// OutcomeNotFound means the entity to remove does not exist.
	OutcomeNotFound
	// OutcomeIgnored means the event was not recognised.
	OutcomeIgnored
	// OutcomeRejected means the event failed and was dropped; Handle returns the error.
	OutcomeRejected
)

// String returns the metric label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomePublisherMissing:
		return "publisher_missing"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the engine state.
type Snapshot struct {
	Publishers    []Publisher               `json:"publishers"`
	Queries       []Query                   `json:"queries"`
	BufferStreams map[string][]string       `json:"buffer_streams"`
	Services      []serviceregistry.Service `json:"services"`
}

// Engine tracks publishers, queries, buffer streams and service workers, and
// emits downstream commands on lifecycle transitions.
//
// Engine is not goroutine safe. A single goroutine must own it and feed it
// events one at a time.
type Engine struct {
	publishers *PublisherDirectory
	queries    *QueryStore
	buffers    *BufferIndex
	services   *serviceregistry.Registry

	parser  query.Parser
	emitter Emitter
	newID   func() string

	logger  *slog.Logger
	metrics *engineMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the correlation id generator for emitted commands.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

// New creates an engine over the given service registry. The emitter
// receives every command the engine produces.
func New(
	parser query.Parser,
	services *serviceregistry.Registry,
	emitter Emitter,
	logger *slog.Logger,
	metricsRegistry *metric.MetricsRegistry,
	opts ...Option,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if services == nil {
		services = serviceregistry.New()
	}

	metrics, err := newEngineMetrics(metricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize engine metrics", "error", err)
		metrics = nil
	}

	e := &Engine{
		publishers: NewPublisherDirectory(),
		queries:    NewQueryStore(),
		buffers:    NewBufferIndex(),
		services:   services,
		parser:     parser,
		emitter:    emitter,
		newID:      func() string { return message.NewEventID(ServiceName) },
		logger:     logger.With("component", "engine"),
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle dispatches an event to its handler. Only query parse failures
// return an error; every other failure mode is a benign Outcome.
func (e *Engine) Handle(ctx context.Context, ev Event) (Outcome, error) {
	var (
		outcome Outcome
		err     error
	)

	switch ev := ev.(type) {
	case PublisherJoined:
		outcome = e.JoinPublisher(ctx, ev)
	case PublisherLeft:
		outcome = e.LeavePublisher(ctx, ev)
	case QueryReceived:
		outcome, err = e.AddQuery(ctx, ev)
	case QueryDeletionRequested:
		outcome = e.DeleteQuery(ctx, ev)
	case ServiceWorkerAnnounced:
		outcome = e.AnnounceWorker(ctx, ev)
	case Unknown:
		e.logger.DebugContext(ctx, "Ignoring unknown event", "event_id", ev.ID, "type", ev.Type)
		outcome = OutcomeIgnored
	default:
		outcome = OutcomeIgnored
	}

	kind := KindUnknown
	if ev != nil {
		kind = ev.Kind()
	}
	e.metrics.recordEvent(kind, outcome.String())
	e.metrics.recordSizes(e.publishers.Len(), e.queries.Len(), e.buffers.Len())
	return outcome, err
}

// JoinPublisher registers a publisher. A publisher that already joined keeps
// its original metadata.
func (e *Engine) JoinPublisher(ctx context.Context, ev PublisherJoined) Outcome {
	if !e.publishers.Add(ev.Publisher) {
		e.logger.InfoContext(ctx, "Ignoring duplicated publisher inclusion",
			"event_id", ev.ID, "publisher_id", ev.Publisher.ID)
		return OutcomeDuplicate
	}
	e.logger.DebugContext(ctx, "Publisher joined",
		"event_id", ev.ID, "publisher_id", ev.Publisher.ID, "source", ev.Publisher.Source)
	return OutcomeApplied
}

// LeavePublisher removes a publisher. Queries and buffer streams bound to it
// are left in place.
func (e *Engine) LeavePublisher(ctx context.Context, ev PublisherLeft) Outcome {
	if _, ok := e.publishers.Remove(ev.PublisherID); !ok {
		e.logger.InfoContext(ctx, "Ignoring removal of non-existing publisher",
			"event_id", ev.ID, "publisher_id", ev.PublisherID)
		return OutcomeNotFound
	}

	if bound := e.queries.CountByPublisher(ev.PublisherID); bound > 0 {
		e.logger.WarnContext(ctx, "Publisher left while queries still reference it",
			"event_id", ev.ID, "publisher_id", ev.PublisherID, "queries", bound)
	} else {
		e.logger.DebugContext(ctx, "Publisher left", "event_id", ev.ID, "publisher_id", ev.PublisherID)
	}
	return OutcomeApplied
}

// AddQuery parses and registers a subscriber query. Every derived value is
// computed before the first mutation, so a rejected query leaves state
// untouched.
func (e *Engine) AddQuery(ctx context.Context, ev QueryReceived) (Outcome, error) {
	parsed, err := e.parser.Parse(ev.Text)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to parse query",
			"event_id", ev.ID, "subscriber_id", ev.SubscriberID, "error", err)
		return OutcomeRejected, errors.WrapInvalid(err, "Engine", "AddQuery", "parse query")
	}

	queryID := QueryID(ev.SubscriberID, parsed.Name)

	publisherID, _ := parsed.Publisher()
	publisher, ok := e.publishers.Get(publisherID)
	if !ok {
		e.logger.InfoContext(ctx, "Publisher not available, query will not be processed",
			"event_id", ev.ID, "query_id", queryID, "publisher_id", publisherID)
		return OutcomePublisherMissing, nil
	}

	buffer := BufferStream{
		Key:         BufferStreamKey(parsed.Content, publisher.ID, publisher.Meta.Resolution, publisher.Meta.FPS),
		PublisherID: publisher.ID,
		Source:      publisher.Source,
		Resolution:  publisher.Meta.Resolution,
		FPS:         publisher.Meta.FPS,
	}
	chain := e.services.Chain(parsed.Content)

	if e.queries.Has(queryID) {
		e.logger.InfoContext(ctx, "Ignoring duplicated query addition",
			"event_id", ev.ID, "query_id", queryID)
		return OutcomeDuplicate, nil
	}

	q := Query{
		ID:              queryID,
		SubscriberID:    ev.SubscriberID,
		Parsed:          parsed,
		ReceivedEventID: ev.ID,
		BufferStream:    buffer,
		ServiceChain:    chain,
	}
	e.queries.Insert(q)

	if e.buffers.Add(buffer.Key, queryID) {
		e.emit(ctx, StartPreprocessing{
			ID:              e.newID(),
			PublisherID:     buffer.PublisherID,
			Source:          buffer.Source,
			Resolution:      buffer.Resolution,
			FPS:             buffer.FPS,
			QueryIDs:        e.buffers.Members(buffer.Key),
			BufferStreamKey: buffer.Key,
		})
		e.emit(ctx, AddBufferStreamKey{
			ID:              e.newID(),
			PublisherID:     buffer.PublisherID,
			BufferStreamKey: buffer.Key,
		})
	}

	e.emit(ctx, UpdateControlFlow{
		ID:           e.newID(),
		QueryID:      queryID,
		PublisherID:  buffer.PublisherID,
		ServiceChain: chain,
		QoSPolicies:  parsed.QoSPolicies,
	})
	e.emit(ctx, AddQueryMatching{
		ID:            e.newID(),
		QueryID:       queryID,
		Match:         parsed.Match,
		OptionalMatch: parsed.OptionalMatch,
		Where:         parsed.Where,
		Return:        parsed.Return,
	})
	e.emit(ctx, AddQueryWindow{
		ID:      e.newID(),
		QueryID: queryID,
		Window:  parsed.Window,
	})
	e.emit(ctx, QueryCreated{ID: e.newID(), Query: q})

	e.logger.DebugContext(ctx, "Query registered",
		"event_id", ev.ID, "query_id", queryID, "buffer_stream_key", buffer.Key, "service_chain", chain)
	return OutcomeApplied, nil
}

// DeleteQuery removes a subscriber query. Matcher, window manager and
// adaptation planner are not notified; they clean up by query id on their own.
func (e *Engine) DeleteQuery(ctx context.Context, ev QueryDeletionRequested) Outcome {
	queryID := QueryID(ev.SubscriberID, ev.QueryName)

	q, ok := e.queries.Remove(queryID)
	if !ok {
		e.logger.InfoContext(ctx, "Ignoring removal of non-existing query",
			"event_id", ev.ID, "query_id", queryID)
		return OutcomeNotFound
	}

	key := q.BufferStream.Key
	if e.buffers.Remove(key, queryID) {
		e.emit(ctx, StopPreprocessing{ID: e.newID(), BufferStreamKey: key})
		e.emit(ctx, DelBufferStreamKey{
			ID:              e.newID(),
			PublisherID:     q.BufferStream.PublisherID,
			BufferStreamKey: key,
		})
	}

	e.emit(ctx, QueryRemoved{ID: e.newID(), Query: q, Deleted: true})

	e.logger.DebugContext(ctx, "Query removed", "event_id", ev.ID, "query_id", queryID)
	return OutcomeApplied
}

// AnnounceWorker records a service worker. Re-announcing a stream key
// replaces the previous attributes.
func (e *Engine) AnnounceWorker(ctx context.Context, ev ServiceWorkerAnnounced) Outcome {
	replaced := e.services.Announce(ev.Worker)
	e.logger.DebugContext(ctx, "Service worker announced",
		"event_id", ev.ID,
		"service_type", ev.Worker.ServiceType,
		"stream_key", ev.Worker.StreamKey,
		"replaced", replaced)
	return OutcomeApplied
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Publishers:    e.publishers.List(),
		Queries:       e.queries.List(),
		BufferStreams: e.buffers.Snapshot(),
		Services:      e.services.Snapshot(),
	}
}

// LogState writes the full state at debug level.
func (e *Engine) LogState(ctx context.Context) {
	snap := e.Snapshot()
	e.logger.DebugContext(ctx, "Client manager state",
		"publishers", snap.Publishers,
		"queries", snap.Queries,
		"buffer_streams", snap.BufferStreams,
		"services", snap.Services)
}

func (e *Engine) emit(ctx context.Context, cmd Command) {
	e.metrics.recordCommand(cmd)
	e.emitter.Emit(ctx, cmd)
}
