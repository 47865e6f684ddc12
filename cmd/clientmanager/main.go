// Package main implements the entry point for the client manager service.
// The client manager coordinates publishers, subscriber queries and buffer
// streams for the CEP pipeline over NATS.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "clientmanager"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Client manager for the CEP pipeline",
		Long: `Tracks publishers, subscriber queries and buffer streams, and turns
client lifecycle events into commands for the preprocessor, event
dispatcher, adaptation planner, matcher and window manager.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"Path to configuration file, YAML or JSON (env: CLIENTMANAGER_* overrides)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides log.level)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "",
		"Log format: json, text (overrides log.format)")

	root.AddCommand(
		newRunCmd(flags),
		newValidateCmd(flags),
		newVersionCmd(),
		newSendCmd(flags),
		newSchemaCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version %s (build %s)\n", appName, Version, BuildTime)
		},
	}
}
