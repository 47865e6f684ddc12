package testutil

import (
	"fmt"
	"strings"

	"github.com/c360/clientmanager/engine"
)

// SimpleQueryText registers my_first_query over publisher "test".
const SimpleQueryText = `REGISTER QUERY my_first_query
OUTPUT K_GRAPH_JSON
CONTENT ObjectDetection, ColorDetection
MATCH (c1:Car {color:'blue'}), (c2:Car {color:'white'})
FROM test
WITHIN TUMBLING_COUNT_WINDOW(2)
RETURN *`

// QueryText builds a minimal valid query named name over publisher, asking
// for the given content types.
func QueryText(name, publisher string, content ...string) string {
	return fmt.Sprintf(
		"REGISTER QUERY %s OUTPUT K_GRAPH_JSON CONTENT %s MATCH (p:Person) FROM %s "+
			"WITHIN TUMBLING_COUNT_WINDOW(1) WITH_QOS accuracy = 5, latency = 8 RETURN *",
		name, strings.Join(content, ", "), publisher)
}

// Publisher returns a publisher-joined event.
func Publisher(id, resolution, fps string) engine.PublisherJoined {
	return engine.PublisherJoined{
		ID: "evt-join-" + id,
		Publisher: engine.Publisher{
			ID:     id,
			Source: "rtmp://172.17.0.1/hls/" + id,
			Meta:   engine.PublisherMeta{Resolution: resolution, FPS: fps},
		},
	}
}

// AddQuery returns a query-received event.
func AddQuery(subscriberID, text string) engine.QueryReceived {
	return engine.QueryReceived{ID: "evt-add-" + subscriberID, SubscriberID: subscriberID, Text: text}
}

// DelQuery returns a query-deletion-requested event.
func DelQuery(subscriberID, name string) engine.QueryDeletionRequested {
	return engine.QueryDeletionRequested{ID: "evt-del-" + subscriberID, SubscriberID: subscriberID, QueryName: name}
}

// PublisherJoinedJSON is a wire publisher-joined event tagged for the
// shared commands subject.
func PublisherJoinedJSON(id, resolution, fps string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt-%s","action":"pubJoin","publisher_id":%q,"source":"rtmp://172.17.0.1/hls/%s","meta":{"resolution":%q,"fps":%q}}`,
		id, id, id, resolution, fps))
}

// AddQueryJSON is a wire query-received event tagged for the shared
// commands subject.
func AddQueryJSON(subscriberID, text string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt-add-%s","action":"addQuery","subscriber_id":%q,"query":%q}`,
		subscriberID, subscriberID, text))
}

// DelQueryJSON is a wire query-deletion-requested event tagged for the
// shared commands subject.
func DelQueryJSON(subscriberID, name string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt-del-%s","action":"delQuery","subscriber_id":%q,"query_name":%q}`,
		subscriberID, subscriberID, name))
}
