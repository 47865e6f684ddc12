package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferIndex_Lifecycle(t *testing.T) {
	idx := NewBufferIndex()

	assert.True(t, idx.Add("k", "q1"), "first member opens the entry")
	assert.False(t, idx.Add("k", "q2"))
	assert.False(t, idx.Add("k", "q2"), "re-adding is a no-op")
	assert.Equal(t, []string{"q1", "q2"}, idx.Members("k"))
	assert.Equal(t, 1, idx.Len())

	assert.False(t, idx.Remove("k", "q1"))
	assert.True(t, idx.Has("k"))

	assert.True(t, idx.Remove("k", "q2"), "last member closes the entry")
	assert.False(t, idx.Has("k"))
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Members("k"))
}

func TestBufferIndex_RemoveUnknown(t *testing.T) {
	idx := NewBufferIndex()
	idx.Add("k", "q1")

	assert.False(t, idx.Remove("missing", "q1"))
	assert.False(t, idx.Remove("k", "q2"))
	assert.Equal(t, map[string][]string{"k": {"q1"}}, idx.Snapshot())
}

func TestPublisherDirectory(t *testing.T) {
	d := NewPublisherDirectory()

	p := Publisher{ID: "p1", Source: "a", Meta: PublisherMeta{Resolution: "300x300", FPS: "30"}}
	assert.True(t, d.Add(p))
	assert.False(t, d.Add(Publisher{ID: "p1", Source: "b"}))

	got, ok := d.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "a", got.Source)

	d.Add(Publisher{ID: "p0"})
	list := d.List()
	require.Len(t, list, 2)
	assert.Equal(t, "p0", list[0].ID)

	_, ok = d.Remove("p1")
	assert.True(t, ok)
	_, ok = d.Remove("p1")
	assert.False(t, ok)
	assert.Equal(t, 1, d.Len())
}

func TestQueryStore(t *testing.T) {
	s := NewQueryStore()

	q1 := Query{ID: "q1", BufferStream: BufferStream{PublisherID: "p1"}}
	q2 := Query{ID: "q2", BufferStream: BufferStream{PublisherID: "p1"}}
	q3 := Query{ID: "q3", BufferStream: BufferStream{PublisherID: "p2"}}

	assert.True(t, s.Insert(q1))
	assert.True(t, s.Insert(q2))
	assert.True(t, s.Insert(q3))
	assert.False(t, s.Insert(Query{ID: "q1", SubscriberID: "other"}))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.CountByPublisher("p1"))
	assert.Equal(t, 0, s.CountByPublisher("p9"))

	got, ok := s.Get("q1")
	require.True(t, ok)
	assert.Empty(t, got.SubscriberID)

	removed, ok := s.Remove("q2")
	require.True(t, ok)
	assert.Equal(t, "q2", removed.ID)
	assert.False(t, s.Has("q2"))

	ids := []string{}
	for _, q := range s.List() {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"q1", "q3"}, ids)
}
