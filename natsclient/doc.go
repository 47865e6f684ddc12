// Package natsclient wraps the NATS Go client with circuit breaker protection,
// reconnection handling and the small JetStream surface the client manager needs.
//
// The client manager talks to its collaborators over core NATS subjects and
// publishes subscriber notifications to a JetStream stream. Client covers both:
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//	    natsclient.WithName("clientmanager"),
//	    natsclient.WithMetrics(registry),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	sub, err := client.Subscribe(ctx, "clientmanager.commands", func(ctx context.Context, data []byte) {
//	    // decode and queue
//	})
//	defer sub.Unsubscribe()
//
//	_, err = client.EnsureStream(ctx, jetstream.StreamConfig{
//	    Name:     "NOTIFICATIONS",
//	    Subjects: []string{"notifications.>"},
//	})
//	err = client.PublishToStream(ctx, "notifications.QueryCreated", payload)
//
// # Circuit Breaker
//
// Every failed Connect, EnsureStream or PublishToStream counts toward a
// threshold (default 5). When it is reached the status becomes
// StatusCircuitOpen and operations fail fast with ErrCircuitOpen until the
// backoff elapses. Backoff starts at one second and doubles per round up to
// the configured maximum. Any success resets it.
//
// ErrNotConnected and ErrCircuitOpen are the errors package sentinels
// ErrNoConnection and ErrCircuitOpen, so errors.IsTransient reports true for
// them and errors.RetryConfig.Retry will retry them.
//
// # Metrics
//
// WithMetrics feeds the core NATS gauges of a metric.MetricsRegistry:
// connection status, reconnect count and circuit state.
//
// # Testing
//
// NewTestClient and NewSharedTestClient start a nats server container through
// testcontainers-go. Integration tests are behind the "integration" build tag.
package natsclient
