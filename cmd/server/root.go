package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gotimer/backend/internal/config"
	"gotimer/backend/internal/logging"
)

type options struct {
	configDir string
	cfg       *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "gotimer",
		Short: "Go Timer backend",
		Long: `gotimer serves the Go Timer REST API: accounts, guest sessions,
games with byoyomi clock settings, per-move timing records and statistics.

Running it without a subcommand starts the HTTP server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.cfg = cfg
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "Directory containing the .env file")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newMigrateCmd(opts))

	return rootCmd
}
