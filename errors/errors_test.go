package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.class.String())
		})
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		invalid   bool
		fatal     bool
	}{
		{"nil", nil, false, false, false},
		{"connection timeout", ErrConnectionTimeout, true, false, false},
		{"circuit open", ErrCircuitOpen, true, false, false},
		{"context cancelled", context.Canceled, true, false, false},
		{"timeout message", fmt.Errorf("nats: timeout"), true, false, false},
		{"parse failure", ErrParsingFailed, false, true, false},
		{"unknown event", ErrUnknownEvent, false, true, false},
		{"invalid config", ErrInvalidConfig, false, false, true},
		{"wrapped invalid", WrapInvalid(stderrors.New("bad"), "Engine", "AddQuery", "parse"), false, true, false},
		{"wrapped fatal", WrapFatal(stderrors.New("boom"), "Processor", "Start", "subscribe"), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err), "transient")
			assert.Equal(t, tt.invalid, IsInvalid(tt.err), "invalid")
			assert.Equal(t, tt.fatal, IsFatal(tt.err), "fatal")
		})
	}
}

func TestWrap_Format(t *testing.T) {
	err := Wrap(ErrQueryNotFound, "Engine", "DeleteQuery", "lookup")
	assert.Equal(t, "Engine.DeleteQuery: lookup failed: query not found", err.Error())
	assert.True(t, Is(err, ErrQueryNotFound))
	assert.Nil(t, Wrap(nil, "a", "b", "c"))
	assert.Nil(t, WrapInvalid(nil, "a", "b", "c"))
}

func TestClassifiedError_Fields(t *testing.T) {
	err := WrapInvalid(ErrParsingFailed, "Parser", "Parse", "missing FROM clause")

	var ce *ClassifiedError
	require.True(t, As(err, &ce))
	assert.Equal(t, "Parser", ce.Component)
	assert.Equal(t, "Parse", ce.Operation)
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestRetryConfig(t *testing.T) {
	rc := DefaultRetryConfig()
	p := rc.Policy()
	assert.Equal(t, rc.MaxRetries+1, p.Attempts)
	assert.Equal(t, rc.InitialDelay, p.Base)
	assert.Equal(t, rc.MaxDelay, p.Cap)
	assert.True(t, p.Jitter)
}

func TestRetryConfig_Retry(t *testing.T) {
	rc := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}

	calls := 0
	err := rc.Retry(context.Background(), func() error {
		calls++
		return ErrConnectionLost
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = rc.Retry(context.Background(), func() error {
		calls++
		return ErrParsingFailed
	})
	assert.ErrorIs(t, err, ErrParsingFailed)
	assert.Equal(t, 1, calls)
}
