package engine

import (
	"maps"
	"slices"

	"github.com/c360/clientmanager/query"
)

// PublisherMeta describes a publisher's stream. Resolution and FPS feed the
// buffer-stream key; anything else the publisher sent is kept in Extra.
type PublisherMeta struct {
	Resolution string         `json:"resolution"`
	FPS        string         `json:"fps"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Publisher is a registered data source.
type Publisher struct {
	ID     string        `json:"id"`
	Source string        `json:"source"`
	Meta   PublisherMeta `json:"meta"`
}

// BufferStream binds a query to a shared, content-addressed processing
// channel.
type BufferStream struct {
	Key         string `json:"buffer_stream_key"`
	PublisherID string `json:"publisher_id"`
	Source      string `json:"source"`
	Resolution  string `json:"resolution"`
	FPS         string `json:"fps"`
}

// Query is a registered subscriber query. The service chain is resolved once
// at registration and never refreshed.
type Query struct {
	ID              string            `json:"query_id"`
	SubscriberID    string            `json:"subscriber_id"`
	Parsed          query.ParsedQuery `json:"parsed_query"`
	ReceivedEventID string            `json:"query_received_event_id"`
	BufferStream    BufferStream      `json:"buffer_stream"`
	ServiceChain    []string          `json:"service_chain"`
}

// PublisherDirectory holds the joined publishers by id.
type PublisherDirectory struct {
	publishers map[string]Publisher
}

// NewPublisherDirectory returns an empty directory.
func NewPublisherDirectory() *PublisherDirectory {
	return &PublisherDirectory{publishers: make(map[string]Publisher)}
}

// Add inserts p unless its id is already present. It reports whether p was
// inserted; an existing entry is never overwritten.
func (d *PublisherDirectory) Add(p Publisher) bool {
	if _, exists := d.publishers[p.ID]; exists {
		return false
	}
	d.publishers[p.ID] = p
	return true
}

// Remove deletes the publisher and returns it.
func (d *PublisherDirectory) Remove(id string) (Publisher, bool) {
	p, ok := d.publishers[id]
	if ok {
		delete(d.publishers, id)
	}
	return p, ok
}

// Get looks a publisher up by id.
func (d *PublisherDirectory) Get(id string) (Publisher, bool) {
	p, ok := d.publishers[id]
	return p, ok
}

// Len returns the number of publishers.
func (d *PublisherDirectory) Len() int {
	return len(d.publishers)
}

// List returns all publishers sorted by id.
func (d *PublisherDirectory) List() []Publisher {
	out := make([]Publisher, 0, len(d.publishers))
	for _, id := range slices.Sorted(maps.Keys(d.publishers)) {
		out = append(out, d.publishers[id])
	}
	return out
}

// QueryStore holds registered queries by query id.
type QueryStore struct {
	queries map[string]Query
}

// NewQueryStore returns an empty store.
func NewQueryStore() *QueryStore {
	return &QueryStore{queries: make(map[string]Query)}
}

// Insert adds q unless its id is already present.
func (s *QueryStore) Insert(q Query) bool {
	if _, exists := s.queries[q.ID]; exists {
		return false
	}
	s.queries[q.ID] = q
	return true
}

// Remove deletes the query and returns it.
func (s *QueryStore) Remove(id string) (Query, bool) {
	q, ok := s.queries[id]
	if ok {
		delete(s.queries, id)
	}
	return q, ok
}

// Get looks a query up by id.
func (s *QueryStore) Get(id string) (Query, bool) {
	q, ok := s.queries[id]
	return q, ok
}

// Has reports whether a query with this id is registered.
func (s *QueryStore) Has(id string) bool {
	_, ok := s.queries[id]
	return ok
}

// Len returns the number of queries.
func (s *QueryStore) Len() int {
	return len(s.queries)
}

// CountByPublisher returns how many queries are bound to publisherID.
func (s *QueryStore) CountByPublisher(publisherID string) int {
	n := 0
	for _, q := range s.queries {
		if q.BufferStream.PublisherID == publisherID {
			n++
		}
	}
	return n
}

// List returns all queries sorted by id.
func (s *QueryStore) List() []Query {
	out := make([]Query, 0, len(s.queries))
	for _, id := range slices.Sorted(maps.Keys(s.queries)) {
		out = append(out, s.queries[id])
	}
	return out
}

// BufferIndex maps a buffer-stream key to the ids of the queries reading it.
// A key is present only while at least one query depends on it.
type BufferIndex struct {
	entries map[string]map[string]struct{}
}

// NewBufferIndex returns an empty index.
func NewBufferIndex() *BufferIndex {
	return &BufferIndex{entries: make(map[string]map[string]struct{})}
}

// Add records that queryID depends on key. It reports whether this made the
// entry go from empty to one member.
func (b *BufferIndex) Add(key, queryID string) bool {
	set, ok := b.entries[key]
	if !ok {
		set = make(map[string]struct{})
		b.entries[key] = set
	}
	set[queryID] = struct{}{}
	return !ok
}

// Remove drops queryID from key. It reports whether the entry became empty,
// in which case the entry is deleted.
func (b *BufferIndex) Remove(key, queryID string) bool {
	set, ok := b.entries[key]
	if !ok {
		return false
	}
	if _, member := set[queryID]; !member {
		return false
	}
	delete(set, queryID)
	if len(set) > 0 {
		return false
	}
	delete(b.entries, key)
	return true
}

// Members returns the query ids depending on key, sorted.
func (b *BufferIndex) Members(key string) []string {
	return slices.Sorted(maps.Keys(b.entries[key]))
}

// Has reports whether key has an entry.
func (b *BufferIndex) Has(key string) bool {
	_, ok := b.entries[key]
	return ok
}

// Len returns the number of live buffer streams.
func (b *BufferIndex) Len() int {
	return len(b.entries)
}

// Snapshot copies the index into key -> sorted member ids.
func (b *BufferIndex) Snapshot() map[string][]string {
	out := make(map[string][]string, len(b.entries))
	for key := range b.entries {
		out[key] = b.Members(key)
	}
	return out
}
