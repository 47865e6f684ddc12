//go:build integration

package natsclient

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/clientmanager/metric"
)

func TestIntegration_ConnectAndRTT(t *testing.T) {
	tc := NewTestClient(t, WithNATSVersion("2.10-alpine"), WithStartTimeout(time.Minute))

	assert.True(t, tc.IsReady())
	assert.Equal(t, StatusConnected, tc.Client.Status())

	rtt, err := tc.Client.RTT()
	require.NoError(t, err)
	assert.Greater(t, rtt, time.Duration(0))
	assert.Greater(t, tc.Client.GetStatus().RTT, time.Duration(0))
}

func TestIntegration_ConnectReportsMetrics(t *testing.T) {
	tc := NewTestClient(t, WithNATSVersion("2.10-alpine"), WithStartTimeout(time.Minute))

	registry := metric.NewMetricsRegistry()
	client, err := NewClient(tc.URL, WithMetrics(registry), WithName("clientmanager-test"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.CoreMetrics().NATSConnected))

	require.NoError(t, client.Close(ctx))
	assert.Equal(t, 0.0, testutil.ToFloat64(registry.CoreMetrics().NATSConnected))
}

func TestIntegration_CircuitBreakerWithRealConnection(t *testing.T) {
	ctx := context.Background()

	client, err := NewClient("nats://invalid-host:4222", WithTimeouts(200*time.Millisecond, 0, 0))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assert.Error(t, client.Connect(ctx))
		assert.NotEqual(t, StatusCircuitOpen, client.Status())
	}

	assert.ErrorIs(t, client.Connect(ctx), ErrCircuitOpen)
	assert.Equal(t, StatusCircuitOpen, client.Status())

	start := time.Now()
	assert.ErrorIs(t, client.Connect(ctx), ErrCircuitOpen)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestIntegration_PublishSubscribe(t *testing.T) {
	tc := NewTestClient(t, WithNATSVersion("2.10-alpine"), WithStartTimeout(time.Minute))
	ctx := context.Background()

	var received atomic.Int32
	got := make(chan []byte, 1)
	sub, err := tc.Client.Subscribe(ctx, "clientmanager.test", func(_ context.Context, data []byte) {
		received.Add(1)
		got <- data
	})
	require.NoError(t, err)

	require.NoError(t, tc.Client.Publish(ctx, "clientmanager.test", []byte(`{"id":"1"}`)))

	select {
	case data := <-got:
		assert.JSONEq(t, `{"id":"1"}`, string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}
	assert.Equal(t, int32(1), received.Load())

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, tc.Client.Publish(ctx, "clientmanager.test", []byte(`{"id":"2"}`)))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), received.Load(), "released subscription gets nothing")
}

func TestIntegration_EnsureStreamAndPublish(t *testing.T) {
	tc := NewTestClient(t, WithJetStream())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := jetstream.StreamConfig{Name: "NOTIFICATIONS", Subjects: []string{"notifications.>"}}
	stream, err := tc.Client.EnsureStream(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, stream)

	// Second call with the same name must not fail.
	_, err = tc.Client.EnsureStream(ctx, cfg)
	require.NoError(t, err)

	require.NoError(t, tc.Client.PublishToStream(ctx, "notifications.QueryCreated", []byte(`{"id":"n1"}`)))

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs)
}

func TestIntegration_HealthCallbackOnClose(t *testing.T) {
	tc := NewTestClient(t, WithNATSVersion("2.10-alpine"), WithStartTimeout(time.Minute))

	var healthy atomic.Bool
	healthy.Store(true)
	client, err := NewClient(tc.URL)
	require.NoError(t, err)
	client.OnHealthChange(func(h bool) { healthy.Store(h) })

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	assert.True(t, healthy.Load())
	require.NoError(t, client.Close(ctx))
	assert.False(t, client.IsHealthy())
}
