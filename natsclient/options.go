package natsclient

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/clientmanager/metric"
)

// ClientOption configures a Client before it connects. Zero durations keep
// the client's defaults.
type ClientOption func(*Client) error

// WithName sets the connection name the server reports.
func WithName(name string) ClientOption {
	return func(c *Client) error {
		c.clientName = name
		return nil
	}
}

// WithLogger replaces the default logger. Nil is ignored.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger.With("component", "natsclient")
		}
		return nil
	}
}

// WithReconnect bounds automatic reconnection. A limit of -1 retries
// forever and 0 never reconnects.
func WithReconnect(limit int, wait time.Duration) ClientOption {
	return func(c *Client) error {
		c.maxReconnects = limit
		if wait > 0 {
			c.reconnectWait = wait
		}
		return nil
	}
}

// WithTimeouts sets the dial timeout, the server ping interval and how long
// Close may spend draining.
func WithTimeouts(dial, ping, drain time.Duration) ClientOption {
	return func(c *Client) error {
		for _, d := range []struct {
			dst *time.Duration
			v   time.Duration
		}{{&c.timeout, dial}, {&c.pingInterval, ping}, {&c.drainTimeout, drain}} {
			if d.v > 0 {
				*d.dst = d.v
			}
		}
		return nil
	}
}

// WithAuth authenticates with username and password when both are set, and
// with token when it is set.
func WithAuth(username, password, token string) ClientOption {
	return func(c *Client) error {
		c.username, c.password, c.token = username, password, token
		return nil
	}
}

// WithCircuitBreaker opens the circuit after threshold consecutive failures
// and caps the backoff between attempts while it is open. Zero keeps the
// default for either.
func WithCircuitBreaker(threshold int32, maxBackoff time.Duration) ClientOption {
	return func(c *Client) error {
		if threshold < 0 {
			return fmt.Errorf("circuit breaker threshold must not be negative, got %d", threshold)
		}
		if maxBackoff != 0 && maxBackoff < time.Second {
			return fmt.Errorf("max backoff must be at least 1s, got %v", maxBackoff)
		}
		if threshold > 0 {
			c.circuitThreshold = threshold
		}
		if maxBackoff > 0 {
			c.maxBackoff = maxBackoff
		}
		return nil
	}
}

// WithMetrics reports connection status, reconnects and circuit state
// through the registry's core metrics.
func WithMetrics(registry *metric.MetricsRegistry) ClientOption {
	return func(c *Client) error {
		if registry != nil {
			c.metrics = registry.CoreMetrics()
		}
		return nil
	}
}
