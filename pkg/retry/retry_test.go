package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Base: time.Millisecond, Cap: 5 * time.Millisecond}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastPolicy(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("publish timeout")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	down := errors.New("nats down")
	err := Do(context.Background(), fastPolicy(3), func() error {
		attempts++
		return down
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.ErrorIs(t, err, down)
	assert.Equal(t, 3, attempts)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	attempts := 0
	sentinel := errors.New("bad subject")
	err := Do(context.Background(), fastPolicy(5), func() error {
		attempts++
		return Permanent(sentinel)
	})

	assert.ErrorIs(t, err, sentinel)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, attempts)
	assert.Nil(t, Permanent(nil))
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, Base: 50 * time.Millisecond, Cap: time.Second}

	attempts := 0
	err := Do(ctx, p, func() error {
		attempts++
		cancel()
		return errors.New("connection refused")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDo_ZeroPolicyRunsOnce(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{}, func() error {
		attempts++
		return errors.New("once")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_RejectsInvalidPolicy(t *testing.T) {
	noop := func() error { return nil }
	assert.Error(t, Do(context.Background(), Policy{Base: time.Second, Cap: time.Millisecond}, noop))
	assert.Error(t, Do(context.Background(), Policy{Factor: -1}, noop))
}

func TestPolicy_Wait(t *testing.T) {
	p, err := Policy{Base: 100 * time.Millisecond, Cap: time.Second, Factor: 3}.normalized()
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, p.wait(1))
	assert.Equal(t, 300*time.Millisecond, p.wait(2))
	assert.Equal(t, 900*time.Millisecond, p.wait(3))
	assert.Equal(t, time.Second, p.wait(4), "capped")

	p.Jitter = true
	for range 20 {
		w := p.wait(1)
		assert.GreaterOrEqual(t, w, 100*time.Millisecond)
		assert.Less(t, w, 125*time.Millisecond)
	}
}
