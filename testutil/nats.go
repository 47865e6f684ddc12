package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/c360/clientmanager/natsclient"
)

// Handler is a subscription callback.
type Handler = func(context.Context, []byte)

type mockSub struct {
	subject string
	handler Handler
}

// MockNATSClient is an in-memory transport. Publish records the message and
// delivers it synchronously to the subject's current subscribers. Safe for
// concurrent use.
type MockNATSClient struct {
	mu       sync.RWMutex
	messages map[string][][]byte
	subs     []*mockSub

	// PublishErr, when set, fails every publish.
	PublishErr error
}

// NewMockNATSClient creates an empty mock transport.
func NewMockNATSClient() *MockNATSClient {
	return &MockNATSClient{messages: make(map[string][][]byte)}
}

// Publish records data on subject and delivers it to subscribers.
func (c *MockNATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	c.mu.Lock()
	if c.PublishErr != nil {
		c.mu.Unlock()
		return c.PublishErr
	}
	c.messages[subject] = append(c.messages[subject], data)

	var handlers []Handler
	for _, s := range c.subs {
		if s.subject == subject {
			handlers = append(handlers, s.handler)
		}
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(ctx, data)
	}
	return nil
}

// PublishToStream behaves like Publish.
func (c *MockNATSClient) PublishToStream(ctx context.Context, subject string, data []byte) error {
	return c.Publish(ctx, subject, data)
}

// Subscribe adds handler for subject until the returned subscription is released.
func (c *MockNATSClient) Subscribe(ctx context.Context, subject string, handler Handler) (natsclient.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := &mockSub{subject: subject, handler: handler}
	c.subs = append(c.subs, s)
	return mockSubscription{client: c, sub: s}, nil
}

type mockSubscription struct {
	client *MockNATSClient
	sub    *mockSub
}

func (m mockSubscription) Unsubscribe() error {
	m.client.mu.Lock()
	defer m.client.mu.Unlock()

	n := len(m.client.subs)
	m.client.subs = slices.DeleteFunc(m.client.subs, func(s *mockSub) bool { return s == m.sub })
	if len(m.client.subs) == n {
		return fmt.Errorf("subscription on %s already released", m.sub.subject)
	}
	return nil
}

// Subjects returns the distinct subscribed subjects.
func (c *MockNATSClient) Subjects() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, s := range c.subs {
		if !slices.Contains(out, s.subject) {
			out = append(out, s.subject)
		}
	}
	return out
}

// SubscriberCount is the number of live subscriptions on subject.
func (c *MockNATSClient) SubscriberCount(subject string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, s := range c.subs {
		if s.subject == subject {
			n++
		}
	}
	return n
}

// GetMessages returns a copy of what was published on subject.
func (c *MockNATSClient) GetMessages(subject string) [][]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.messages[subject])
}

// GetMessageCount is len(GetMessages(subject)).
func (c *MockNATSClient) GetMessageCount(subject string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages[subject])
}

// ClearAll forgets every recorded message. Subscriptions stay.
func (c *MockNATSClient) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.messages)
}

// WaitForMessageCount fails the test unless subject reaches count messages
// within timeout.
func WaitForMessageCount(t *testing.T, client *MockNATSClient, subject string, count int, timeout time.Duration) {
	t.Helper()
	require.Eventuallyf(t, func() bool {
		return client.GetMessageCount(subject) >= count
	}, timeout, 5*time.Millisecond, "waiting for %d messages on %s", count, subject)
}

// AssertNoMessages fails the test if anything was published on subject.
func AssertNoMessages(t *testing.T, client *MockNATSClient, subject string) {
	t.Helper()
	require.Zerof(t, client.GetMessageCount(subject), "expected no messages on %s", subject)
}
