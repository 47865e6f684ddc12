package clientmanager

import (
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/c360/clientmanager/component"
	"github.com/c360/clientmanager/engine"
	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/metric"
	"github.com/c360/clientmanager/query"
	cmtest "github.com/c360/clientmanager/testutil"
)

func newTestEmitter(t *testing.T, transport Transport, registry *metric.MetricsRegistry) *natsEmitter {
	t.Helper()

	metrics, err := newProcessorMetrics(registry)
	require.NoError(t, err)

	cfg := DefaultConfig()
	_, outputs := cfg.resolvePorts()
	return &natsEmitter{
		transport: transport,
		routes:    routesFromPorts(outputs),
		retry:     errors.RetryConfig{MaxRetries: 0},
		logger:    slog.Default(),
		metrics:   metrics,
	}
}

func TestRoutesFromPorts(t *testing.T) {
	cfg := DefaultConfig()
	_, outputs := cfg.resolvePorts()
	routes := routesFromPorts(outputs)

	require.Len(t, routes, len(engine.Targets()))
	assert.Equal(t, route{subject: "matcher.cmd"}, routes[engine.TargetMatcher])
	assert.Equal(t, route{subject: "clientmanager.notifications", stream: true, perAction: true},
		routes[engine.TargetNotifications])
	assert.Equal(t, "clientmanager.notifications.<action>", routes[engine.TargetNotifications].String())
}

func TestEmit_PublishesTaggedJSON(t *testing.T) {
	mock := cmtest.NewMockNATSClient()
	e := newTestEmitter(t, mock, nil)

	e.Emit(context.Background(), engine.AddBufferStreamKey{
		ID:              "ClientManager:1",
		PublisherID:     "pub_id1",
		BufferStreamKey: "7a8cde7a97f51f561cda88d38df63caa",
	})

	msgs := mock.GetMessages("event_dispatcher.cmd")
	require.Len(t, msgs, 1)

	doc := gjson.ParseBytes(msgs[0])
	assert.Equal(t, "ClientManager:1", doc.Get("id").String())
	assert.Equal(t, engine.ActionAddBufferStreamKey, doc.Get("action").String())
	assert.Equal(t, "pub_id1", doc.Get("publisher_id").String())
	assert.Equal(t, "7a8cde7a97f51f561cda88d38df63caa", doc.Get("buffer_stream_key").String())
}

func TestEmit_NotificationsUsePerActionSubjects(t *testing.T) {
	mock := cmtest.NewMockNATSClient()
	e := newTestEmitter(t, mock, nil)

	q := engine.Query{
		ID:           "6962607866718b3cbd13556162c95dd9",
		SubscriberID: "sub_1",
		Parsed:       query.ParsedQuery{Name: "my incredible query"},
		ServiceChain: []string{"ObjectDetection"},
	}
	e.Emit(context.Background(), engine.QueryCreated{ID: "ClientManager:2", Query: q})
	e.Emit(context.Background(), engine.QueryRemoved{ID: "ClientManager:3", Query: q, Deleted: true})

	created := mock.GetMessages("clientmanager.notifications.QueryCreated")
	require.Len(t, created, 1)
	assert.Equal(t, "ClientManager:2", gjson.GetBytes(created[0], "id").String())
	assert.Equal(t, "6962607866718b3cbd13556162c95dd9", gjson.GetBytes(created[0], "query_id").String())
	assert.Equal(t, "QueryCreated", gjson.GetBytes(created[0], "action").String())

	removed := mock.GetMessages("clientmanager.notifications.QueryRemoved")
	require.Len(t, removed, 1)
	assert.True(t, gjson.GetBytes(removed[0], "deleted").Bool())
}

func TestEmit_FailuresAreCountedNotReturned(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	mock := cmtest.NewMockNATSClient()
	mock.PublishErr = errors.New("broker refused")
	e := newTestEmitter(t, mock, registry)

	e.Emit(context.Background(), engine.StopPreprocessing{ID: "x", BufferStreamKey: "k"})

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.publishFailed.WithLabelValues("preprocessor")))
	assert.Equal(t, 0, mock.GetMessageCount("preprocessor.cmd"))
}

func TestEmit_UnroutedTarget(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	mock := cmtest.NewMockNATSClient()
	e := newTestEmitter(t, mock, registry)
	delete(e.routes, engine.TargetWindowManager)

	e.Emit(context.Background(), engine.AddQueryWindow{ID: "x", QueryID: "q"})

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.publishFailed.WithLabelValues("window_manager")))
}

func TestRoutesFromPorts_Override(t *testing.T) {
	outputs := component.MergePortConfigs(
		buildPorts(DefaultConfig().Ports.Outputs, component.DirectionOutput),
		[]component.PortDefinition{{Name: "matcher", Subject: "cep.matcher.cmd"}},
		component.DirectionOutput)

	routes := routesFromPorts(outputs)
	assert.Equal(t, "cep.matcher.cmd", routes[engine.TargetMatcher].subject)
	assert.Equal(t, "preprocessor.cmd", routes[engine.TargetPreprocessor].subject)
}
