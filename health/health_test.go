package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/clientmanager/component"
)

func TestFromComponentHealth(t *testing.T) {
	tests := []struct {
		name      string
		health    component.HealthStatus
		wantState string
	}{
		{"running", component.HealthStatus{Healthy: true}, StateHealthy},
		{"running with errors", component.HealthStatus{Healthy: true, ErrorCount: 2, LastError: "bad event"}, StateDegraded},
		{"stopped", component.HealthStatus{Healthy: false}, StateUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := FromComponentHealth("cm", tt.health)
			assert.Equal(t, "cm", status.Component)
			assert.Equal(t, tt.wantState, status.Status)
			require.NotNil(t, status.Metrics)
			assert.Equal(t, tt.health.ErrorCount, status.Metrics.ErrorCount)
			assert.False(t, status.Timestamp.IsZero())
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"connect nats://user:pw@10.0.0.5:4222 failed", "connect [URL] failed"},
		{"open /etc/clientmanager/config.yaml: denied", "open [PATH]: denied"},
		{"dial 192.168.1.10 refused", "dial [IP] refused"},
		{"auth failed token=abc123", "auth failed [REDACTED]"},
		{"plain failure", "plain failure"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeErrorMessage(tt.in), tt.in)
	}
}

func TestAggregate(t *testing.T) {
	healthy := NewStatus("a", StateHealthy, "")
	degraded := NewStatus("b", StateDegraded, "")
	unhealthy := NewStatus("c", StateUnhealthy, "")

	assert.Equal(t, StateHealthy, Aggregate("svc", nil).Status)
	assert.Equal(t, StateHealthy, Aggregate("svc", []Status{healthy}).Status)
	assert.Equal(t, StateDegraded, Aggregate("svc", []Status{healthy, degraded}).Status)
	assert.Equal(t, StateUnhealthy, Aggregate("svc", []Status{degraded, unhealthy}).Status)

	agg := Aggregate("svc", []Status{healthy, degraded})
	assert.Len(t, agg.SubStatuses, 2)
}

func TestChecker(t *testing.T) {
	checker := NewChecker("clientmanager")
	assert.NoError(t, checker.Err())

	natsUp := true
	checker.Register("nats", func() Status {
		if natsUp {
			return NewStatus("nats", StateHealthy, "connected")
		}
		return NewStatus("nats", StateUnhealthy, "reconnecting")
	})
	checker.Register("cm", func() Status {
		return FromComponentHealth("cm", component.HealthStatus{Healthy: true, ErrorCount: 1, Uptime: time.Second})
	})

	status := checker.Check()
	assert.Equal(t, StateDegraded, status.Status)
	assert.Equal(t, "nats", status.SubStatuses[0].Component)
	assert.NoError(t, checker.Err(), "degraded still serves")

	natsUp = false
	err := checker.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats: reconnecting")

	checker.Register("nats", func() Status { return NewStatus("nats", StateHealthy, "") })
	assert.Len(t, checker.Check().SubStatuses, 2, "re-registering replaces the source")
}
