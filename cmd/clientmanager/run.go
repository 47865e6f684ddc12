package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/c360/clientmanager/component"
	"github.com/c360/clientmanager/componentregistry"
	"github.com/c360/clientmanager/config"
	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/health"
	"github.com/c360/clientmanager/metric"
	"github.com/c360/clientmanager/natsclient"
	"github.com/c360/clientmanager/types"
)

// defaultComponent is created when the configuration names no components.
const defaultComponent = "client-manager"

func newRunCmd(flags *globalFlags) *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to NATS and run the configured components",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runService(cmd.Context(), cfg, logger, shutdownTimeout)
		},
	}
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	return cmd
}

func newValidateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and every component config, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}

			// Factories do no I/O, so components can be built without NATS.
			registry, err := newComponentRegistry()
			if err != nil {
				return err
			}
			deps := component.Dependencies{Logger: logger, Platform: cfg.Platform.Meta()}
			if _, err := createComponents(registry, cfg, deps); err != nil {
				return err
			}

			cmd.Println("Configuration is valid")
			return nil
		},
	}
}

// loadConfig loads the configuration and installs the default logger.
func loadConfig(flags *globalFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// namedComponent is a created component with its instance name.
type namedComponent struct {
	name      string
	lifecycle component.LifecycleComponent
}

func newComponentRegistry() (*component.Registry, error) {
	registry := component.NewRegistry()
	if err := componentregistry.Register(registry); err != nil {
		return nil, fmt.Errorf("register components: %w", err)
	}
	return registry, nil
}

// createComponents builds and initializes every enabled component, in
// instance name order. Components that are skipped or fail to initialize
// give their port claims back to the registry.
func createComponents(registry *component.Registry, cfg *config.Config, deps component.Dependencies) ([]namedComponent, error) {
	configs := cfg.EnabledComponents()
	if len(configs) == 0 {
		slog.Debug("No components configured, adding default", "name", defaultComponent)
		configs = config.ComponentConfigs{
			defaultComponent: {
				Type:    types.ComponentTypeProcessor,
				Name:    defaultComponent,
				Enabled: true,
			},
		}
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	slices.Sort(names)

	created := make([]namedComponent, 0, len(names))
	for _, name := range names {
		comp, err := registry.CreateComponent(name, configs[name], deps)
		if err != nil {
			return nil, fmt.Errorf("create component %s: %w", name, err)
		}

		lc, ok := component.AsLifecycleComponent(comp)
		if !ok {
			slog.Warn("Component has no lifecycle, skipping", "name", name)
			registry.UnregisterInstance(name)
			continue
		}
		if err := lc.Initialize(); err != nil {
			registry.UnregisterInstance(name)
			return nil, fmt.Errorf("initialize component %s: %w", name, err)
		}
		created = append(created, namedComponent{name: name, lifecycle: lc})
	}
	return created, nil
}

func newNATSClient(cfg config.NATSConfig, logger *slog.Logger, registry *metric.MetricsRegistry) (*natsclient.Client, error) {
	return natsclient.NewClient(cfg.URL,
		natsclient.WithName(cfg.Name),
		natsclient.WithLogger(logger),
		natsclient.WithReconnect(cfg.MaxReconnects, cfg.ReconnectWait),
		natsclient.WithTimeouts(0, cfg.PingInterval, cfg.DrainTimeout),
		natsclient.WithAuth(cfg.Username, cfg.Password, cfg.Token),
		natsclient.WithCircuitBreaker(cfg.CircuitThreshold, cfg.CircuitMaxBackoff),
		natsclient.WithMetrics(registry),
	)
}

// connectNATS connects with retries and waits until the connection is usable.
func connectNATS(ctx context.Context, client *natsclient.Client, retries int) error {
	retryCfg := errors.DefaultRetryConfig()
	retryCfg.MaxRetries = retries

	slog.Info("Connecting to NATS", "url", client.URL())
	if err := retryCfg.Retry(ctx, func() error { return client.Connect(ctx) }); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}
	return nil
}

func runService(ctx context.Context, cfg *config.Config, logger *slog.Logger, shutdownTimeout time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting client manager",
		"version", Version,
		"build_time", BuildTime,
		"org", cfg.Platform.Org,
		"platform", cfg.Platform.ID)

	metricsRegistry := metric.NewMetricsRegistry()

	natsClient, err := newNATSClient(cfg.NATS, logger, metricsRegistry)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}
	if err := connectNATS(ctx, natsClient, cfg.NATS.ConnectRetries); err != nil {
		return err
	}
	defer func() { _ = natsClient.Close(context.Background()) }()
	natsClient.OnHealthChange(func(healthy bool) {
		if healthy {
			logger.Info("NATS connection restored")
			return
		}
		logger.Warn("NATS connection lost", "status", natsClient.Status().String())
	})

	registry, err := newComponentRegistry()
	if err != nil {
		return err
	}
	components, err := createComponents(registry, cfg, component.Dependencies{
		NATSClient:      natsClient,
		MetricsRegistry: metricsRegistry,
		Logger:          logger,
		Platform:        cfg.Platform.Meta(),
	})
	if err != nil {
		return err
	}

	started := make([]namedComponent, 0, len(components))
	defer func() { stopComponents(started, shutdownTimeout) }()

	for _, c := range components {
		if err := c.lifecycle.Start(ctx); err != nil {
			return fmt.Errorf("start component %s: %w", c.name, err)
		}
		started = append(started, c)
		logger.Info("Component started", "name", c.name)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	checker := newHealthChecker(natsClient, started)

	if cfg.Metrics.Enabled {
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
		server.SetHealthCheck(checker.Err)

		g.Go(func() error {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return server.Stop()
		})
		logger.Info("Metrics server listening", "address", server.Address())
	}

	logger.Info("Client manager started", "components", len(started))

	err = g.Wait()
	status := checker.Check()
	logger.Info("Shutting down", "health", status.Status, "message", status.Message)
	return err
}

// newHealthChecker aggregates the NATS connection and every started component.
func newHealthChecker(client *natsclient.Client, components []namedComponent) *health.Checker {
	checker := health.NewChecker(appName)
	checker.Register("nats", func() health.Status {
		if client.IsHealthy() {
			return health.NewStatus("nats", health.StateHealthy, "Connected")
		}
		return health.NewStatus("nats", health.StateUnhealthy, client.Status().String())
	})
	for _, c := range components {
		checker.Register(c.name, func() health.Status {
			return health.FromComponentHealth(c.name, c.lifecycle.Health())
		})
	}
	return checker
}

// stopComponents stops components in reverse start order.
func stopComponents(components []namedComponent, timeout time.Duration) {
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.lifecycle.Stop(timeout); err != nil {
			slog.Error("Error stopping component", "name", c.name, "error", err)
			continue
		}
		slog.Info("Component stopped", "name", c.name)
	}
}
