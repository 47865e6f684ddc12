package component

import (
	"log/slog"

	"github.com/c360/clientmanager/metric"
	"github.com/c360/clientmanager/natsclient"
	"github.com/c360/clientmanager/types"
)

// PlatformMeta provides platform identity to components.
type PlatformMeta = types.PlatformMeta

// Dependencies are the shared services handed to every component factory.
type Dependencies struct {
	NATSClient      *natsclient.Client      // NATS client for messaging
	MetricsRegistry *metric.MetricsRegistry // can be nil
	Logger          *slog.Logger            // can be nil, defaults to slog.Default()
	Platform        PlatformMeta
}

// GetLogger returns the configured logger or slog.Default()
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger tagged with the component name
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}
