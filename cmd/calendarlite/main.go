// calendarlite is the always-on calendar query service's CLI entrypoint,
// grounded on cobra usage in the pack (steveyegge-beads/cmd/bd) for the
// subcommand surface and on fluxforge/agent/main.go for the
// context+signal.Notify shutdown shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/config"
	"github.com/bencan1a/calendarlite/internal/logging"
	"github.com/bencan1a/calendarlite/internal/skipstore"
	"github.com/bencan1a/calendarlite/internal/supervisor"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "calendarlite",
		Short: "Always-on calendar query service",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML or JSON)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newSkipCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and background refresh task",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logging.Init(logging.Config{Level: cfg.LogLevel})

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return supervisor.Run(ctx, cfg)
		},
	}
}

func newSkipCmd(configPath *string) *cobra.Command {
	skipCmd := &cobra.Command{
		Use:   "skip",
		Short: "Manage the skip store",
	}
	skipCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear all active skip entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			store := skipstore.New(cfg.SkipStorePath, clock.Real{})
			if err := store.Load(); err != nil {
				return err
			}
			count, err := store.ClearAll()
			if err != nil {
				return err
			}
			fmt.Printf("cleared %d skip entries\n", count)
			return nil
		},
	})
	return skipCmd
}

func newConfigCmd(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration file, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			fmt.Printf("config OK: %d source(s), refresh every %ds, listening on %s:%d\n",
				len(cfg.Sources), cfg.RefreshIntervalSeconds, cfg.ServerBind, cfg.ServerPort)
			return nil
		},
	})
	return configCmd
}
