package health

import (
	"regexp"
	"strings"
	"time"

	"github.com/c360/clientmanager/component"
)

// Health states
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

// Patterns scrubbed from component errors before they are reported
var (
	urlRegex        = regexp.MustCompile(`(?:https?|nats|wss?)://[^\s]+`)
	unixPathRegex   = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex       = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status is the health of a component or of the whole service
type Status struct {
	Component   string    `json:"component"`
	Status      string    `json:"status"` // healthy, degraded or unhealthy
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics contains health-related counters
type Metrics struct {
	Uptime     time.Duration `json:"uptime"`
	ErrorCount int           `json:"error_count"`
}

// NewStatus creates a status stamped with the current time
func NewStatus(component, state, message string) Status {
	return Status{
		Component: component,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == StateHealthy
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == StateDegraded
}

// FromComponentHealth converts a component.HealthStatus. A running component
// that has recorded errors is degraded; its last error is sanitized.
func FromComponentHealth(name string, ch component.HealthStatus) Status {
	state := StateUnhealthy
	message := "Component not running"
	if ch.Healthy {
		state = StateHealthy
		message = "Component healthy"
		if ch.ErrorCount > 0 {
			state = StateDegraded
		}
	}
	if ch.LastError != "" {
		message = sanitizeErrorMessage(ch.LastError)
	}

	status := NewStatus(name, state, message)
	status.Metrics = &Metrics{Uptime: ch.Uptime, ErrorCount: ch.ErrorCount}
	return status
}

// sanitizeErrorMessage removes URLs, paths, addresses and credentials.
func sanitizeErrorMessage(err string) string {
	if err == "" {
		return ""
	}

	sanitized := urlRegex.ReplaceAllString(err, "[URL]")
	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lower := strings.ToLower(sanitized)
	for _, word := range []string{"password", "token", "secret", "credential"} {
		if strings.Contains(lower, word) {
			return credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
		}
	}
	return sanitized
}
