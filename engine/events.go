package engine

import "github.com/c360/clientmanager/serviceregistry"

// Event is an inbound lifecycle event. The set of implementations is closed;
// Handle switches over all of them.
type Event interface {
	// CorrelationID returns the id the event arrived with.
	CorrelationID() string
	// Kind names the event for logs and metrics.
	Kind() string
	isEvent()
}

// Event kinds.
const (
	KindPublisherJoined        = "publisher_joined"
	KindPublisherLeft          = "publisher_left"
	KindQueryReceived          = "query_received"
	KindQueryDeletionRequested = "query_deletion_requested"
	KindServiceWorkerAnnounced = "service_worker_announced"
	KindUnknown                = "unknown"
)

// PublisherJoined announces a new data publisher.
type PublisherJoined struct {
	ID        string
	Publisher Publisher
}

// PublisherLeft announces that a publisher went away.
type PublisherLeft struct {
	ID          string
	PublisherID string
}

// QueryReceived carries a subscriber's raw query text.
type QueryReceived struct {
	ID           string
	SubscriberID string
	Text         string
}

// QueryDeletionRequested asks for the removal of a subscriber's query.
type QueryDeletionRequested struct {
	ID           string
	SubscriberID string
	QueryName    string
}

// ServiceWorkerAnnounced registers or refreshes a processing-service worker.
type ServiceWorkerAnnounced struct {
	ID     string
	Worker serviceregistry.Worker
}

// Unknown is any event whose tag is not recognised. Handling it is a no-op.
type Unknown struct {
	ID   string
	Type string
}

func (e PublisherJoined) CorrelationID() string        { return e.ID }
func (e PublisherLeft) CorrelationID() string          { return e.ID }
func (e QueryReceived) CorrelationID() string          { return e.ID }
func (e QueryDeletionRequested) CorrelationID() string { return e.ID }
func (e ServiceWorkerAnnounced) CorrelationID() string { return e.ID }
func (e Unknown) CorrelationID() string                { return e.ID }

func (PublisherJoined) Kind() string        { return KindPublisherJoined }
func (PublisherLeft) Kind() string          { return KindPublisherLeft }
func (QueryReceived) Kind() string          { return KindQueryReceived }
func (QueryDeletionRequested) Kind() string { return KindQueryDeletionRequested }
func (ServiceWorkerAnnounced) Kind() string { return KindServiceWorkerAnnounced }
func (Unknown) Kind() string                { return KindUnknown }

func (PublisherJoined) isEvent()        {}
func (PublisherLeft) isEvent()          {}
func (QueryReceived) isEvent()          {}
func (QueryDeletionRequested) isEvent() {}
func (ServiceWorkerAnnounced) isEvent() {}
func (Unknown) isEvent()                {}
