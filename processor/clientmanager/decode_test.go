package clientmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/clientmanager/engine"
	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/message"
	"github.com/c360/clientmanager/serviceregistry"
)

func TestDecode_PublisherCreated(t *testing.T) {
	data := []byte(`{
		"id": "evt-1",
		"publisher_id": "pub_id1",
		"source": "rtmp://172.17.0.1/hls/pub_id1",
		"meta": {"resolution": "300x900", "fps": 100, "codec": "h264"}
	}`)

	ev, err := Decode(PortPublisherCreated, data)
	require.NoError(t, err)

	joined, ok := ev.(engine.PublisherJoined)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "evt-1", joined.ID)
	assert.Equal(t, "pub_id1", joined.Publisher.ID)
	assert.Equal(t, "rtmp://172.17.0.1/hls/pub_id1", joined.Publisher.Source)
	assert.Equal(t, "300x900", joined.Publisher.Meta.Resolution)
	assert.Equal(t, "100", joined.Publisher.Meta.FPS, "numeric fps keeps its textual form")
	assert.Equal(t, map[string]any{"codec": "h264"}, joined.Publisher.Meta.Extra)
}

func TestDecode_FPSString(t *testing.T) {
	ev, err := Decode("pubJoin", []byte(`{"id":"e","publisher_id":"p","source":"rtmp://p","meta":{"resolution":"640x480","fps":"29.97"}}`))
	require.NoError(t, err)

	joined := ev.(engine.PublisherJoined)
	assert.Equal(t, "29.97", joined.Publisher.Meta.FPS)
	assert.Nil(t, joined.Publisher.Meta.Extra)
}

func TestDecode_Aliases(t *testing.T) {
	tests := []struct {
		tag  string
		data string
		kind string
	}{
		{"pubJoin", `{"id":"e","publisher_id":"p","source":"s","meta":{"resolution":"1x1","fps":1}}`, engine.KindPublisherJoined},
		{"PublisherRemoved", `{"id":"e","publisher_id":"p"}`, engine.KindPublisherLeft},
		{"pubLeave", `{"id":"e","publisher_id":"p"}`, engine.KindPublisherLeft},
		{"QueryReceived", `{"id":"e","subscriber_id":"s","query":"q"}`, engine.KindQueryReceived},
		{"addQuery", `{"id":"e","subscriber_id":"s","query":"q"}`, engine.KindQueryReceived},
		{"QueryDeletionRequested", `{"id":"e","subscriber_id":"s","query_name":"n"}`, engine.KindQueryDeletionRequested},
		{"delQuery", `{"id":"e","subscriber_id":"s","query_name":"n"}`, engine.KindQueryDeletionRequested},
		{"ServiceWorkerAnnounced", `{"id":"e","worker":{"service_type":"T","stream_key":"k"}}`, engine.KindServiceWorkerAnnounced},
		{"addWorker", `{"id":"e","worker":{"service_type":"T","stream_key":"k"}}`, engine.KindServiceWorkerAnnounced},
		{"SomethingElse", `{"id":"e"}`, engine.KindUnknown},
		{"", `{"id":"e"}`, engine.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			ev, err := Decode(tt.tag, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, ev.Kind())
			assert.Equal(t, "e", ev.CorrelationID())
		})
	}
}

func TestDecode_QueryEvents(t *testing.T) {
	ev, err := Decode(PortQueryReceived, []byte(`{"id":"e1","subscriber_id":"sub_1","query":"REGISTER QUERY q"}`))
	require.NoError(t, err)
	assert.Equal(t, engine.QueryReceived{ID: "e1", SubscriberID: "sub_1", Text: "REGISTER QUERY q"}, ev)

	ev, err = Decode(PortQueryDeletionRequested, []byte(`{"id":"e2","subscriber_id":"sub_1","query_name":"q"}`))
	require.NoError(t, err)
	assert.Equal(t, engine.QueryDeletionRequested{ID: "e2", SubscriberID: "sub_1", QueryName: "q"}, ev)
}

func TestDecode_IntegerID(t *testing.T) {
	data := []byte(`{"id":1,"action":"delQuery","subscriber_id":"sub_1","query_name":"q"}`)
	require.NoError(t, message.ValidateEnvelope(data))

	ev, err := Decode(eventTag(PortCommands, data), data)
	require.NoError(t, err)
	assert.Equal(t, engine.QueryDeletionRequested{ID: "1", SubscriberID: "sub_1", QueryName: "q"}, ev)
}

func TestDecode_Worker(t *testing.T) {
	data := []byte(`{
		"id": "evt-w",
		"worker": {
			"service_type": "ObjectDetection",
			"stream_key": "object-detection-ssd-data",
			"queue_limit": 100,
			"throughput": 30,
			"accuracy": 0.9,
			"energy_consumption": 5
		}
	}`)

	ev, err := Decode(PortServiceWorkerAnnounced, data)
	require.NoError(t, err)

	announced := ev.(engine.ServiceWorkerAnnounced)
	assert.Equal(t, serviceregistry.Worker{
		ServiceType: "ObjectDetection",
		StreamKey:   "object-detection-ssd-data",
		Attributes: map[string]any{
			"queue_limit":        float64(100),
			"throughput":         float64(30),
			"accuracy":           0.9,
			"energy_consumption": float64(5),
		},
	}, announced.Worker)
}

func TestDecode_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		data string
	}{
		{"publisher without id", PortPublisherCreated, `{"id":"e","source":"s","meta":{"resolution":"1x1","fps":1}}`},
		{"publisher without source", PortPublisherCreated, `{"id":"e","publisher_id":"p1","meta":{"resolution":"1x1","fps":1}}`},
		{"publisher without meta", PortPublisherCreated, `{"id":"e","publisher_id":"p1","source":"s"}`},
		{"publisher without resolution", PortPublisherCreated, `{"id":"e","publisher_id":"p1","source":"s","meta":{"fps":1}}`},
		{"publisher without fps", PortPublisherCreated, `{"id":"e","publisher_id":"p1","source":"s","meta":{"resolution":"1x1"}}`},
		{"publisher with empty fps", PortPublisherCreated, `{"id":"e","publisher_id":"p1","source":"s","meta":{"resolution":"1x1","fps":""}}`},
		{"leave without id", PortPublisherRemoved, `{"id":"e"}`},
		{"query without text", PortQueryReceived, `{"id":"e","subscriber_id":"s"}`},
		{"query without subscriber", PortQueryReceived, `{"id":"e","query":"q"}`},
		{"deletion without name", PortQueryDeletionRequested, `{"id":"e","subscriber_id":"s"}`},
		{"worker missing", PortServiceWorkerAnnounced, `{"id":"e"}`},
		{"worker without stream key", PortServiceWorkerAnnounced, `{"id":"e","worker":{"service_type":"T"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.tag, []byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.ErrorIs(t, err, errors.ErrInvalidData)
		})
	}
}

func TestEventTag(t *testing.T) {
	tagged := []byte(`{"id":"e","action":"pubJoin"}`)

	assert.Equal(t, PortPublisherCreated, eventTag(PortPublisherCreated, tagged), "event ports fix the tag")
	assert.Equal(t, "pubJoin", eventTag(PortCommands, tagged))
	assert.Equal(t, "QueryReceived", eventTag(PortCommands, []byte(`{"id":"e","event_type":"QueryReceived"}`)))
	assert.Equal(t, "", eventTag(PortCommands, []byte(`{"id":"e"}`)))
}
