package health

import (
	"fmt"
	"strings"
	"sync"

	"github.com/c360/clientmanager/errors"
)

// Source reports the current health of one part of the service
type Source func() Status

// Checker aggregates registered sources into a service-wide status.
// It is safe for concurrent use.
type Checker struct {
	name    string
	mu      sync.RWMutex
	order   []string
	sources map[string]Source
}

// NewChecker creates a checker reporting as name
func NewChecker(name string) *Checker {
	return &Checker{name: name, sources: make(map[string]Source)}
}

// Register adds or replaces the source for component
func (c *Checker) Register(component string, src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.sources[component]; !exists {
		c.order = append(c.order, component)
	}
	c.sources[component] = src
}

// Check polls every source in registration order and aggregates the result
func (c *Checker) Check() Status {
	c.mu.RLock()
	subs := make([]Status, 0, len(c.order))
	for _, name := range c.order {
		subs = append(subs, c.sources[name]())
	}
	c.mu.RUnlock()

	return Aggregate(c.name, subs)
}

// Err returns nil unless some source is unhealthy. Degraded sources still
// count as serving.
func (c *Checker) Err() error {
	status := c.Check()
	if status.IsHealthy() || status.IsDegraded() {
		return nil
	}

	var failing []string
	for _, sub := range status.SubStatuses {
		if sub.Status == StateUnhealthy {
			failing = append(failing, fmt.Sprintf("%s: %s", sub.Component, sub.Message))
		}
	}
	return errors.WrapTransient(
		fmt.Errorf("unhealthy: %s", strings.Join(failing, "; ")),
		"Checker", "Err", "aggregate health")
}

// Aggregate combines sub-statuses. Any unhealthy sub-status makes the
// aggregate unhealthy; otherwise any degraded one makes it degraded.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewStatus(component, StateHealthy, "No sub-components to aggregate")
	}

	hasUnhealthy := false
	hasDegraded := false
	for _, sub := range subStatuses {
		switch sub.Status {
		case StateUnhealthy:
			hasUnhealthy = true
		case StateDegraded:
			hasDegraded = true
		}
	}

	var status Status
	switch {
	case hasUnhealthy:
		status = NewStatus(component, StateUnhealthy, "One or more sub-components are unhealthy")
	case hasDegraded:
		status = NewStatus(component, StateDegraded, "One or more sub-components are degraded")
	default:
		status = NewStatus(component, StateHealthy, "All sub-components are healthy")
	}

	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)
	return status
}
