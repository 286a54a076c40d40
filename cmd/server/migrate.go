package main

import (
	"errors"

	"github.com/spf13/cobra"

	"gotimer/backend/internal/migrations"
)

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back SQL migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.cfg.UseDatabase() {
				return errors.New("DATABASE_URL is not set")
			}
			return migrations.Up(opts.cfg.MigrationsPath, opts.cfg.DatabaseURL)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.cfg.UseDatabase() {
				return errors.New("DATABASE_URL is not set")
			}
			return migrations.Down(opts.cfg.MigrationsPath, opts.cfg.DatabaseURL, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}
