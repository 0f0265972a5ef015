// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/feedline/feedline/internal/config"
	"github.com/feedline/feedline/internal/store"
)

// Migrator is the migration surface the migrate subcommands drive.
type Migrator interface {
	AutoMigrator
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	Pending() ([]uint, error)
}

var newMigrator = func(databaseURL string) (Migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Manage the PostgreSQL schema. Without a subcommand all pending
migrations are applied. The database URL is read from DATABASE_URL.`,
		RunE: runMigrateUp,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  runMigrateUp,
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m Migrator) error {
					if err := m.Down(); err != nil {
						return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
					}
					cmd.Println("Migrations rolled back")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m Migrator) error {
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations",
			Long: `Force the recorded schema version, clearing the dirty flag. Use this
to recover after a migration failed part way through.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := parseForceVersion(args[0])
				if err != nil {
					return err
				}
				return withMigrator(cmd, func(m Migrator) error {
					if err := m.Force(version); err != nil {
						return oops.Code("MIGRATION_FAILED").With("operation", "force version").Wrap(err)
					}
					cmd.Printf("Schema version forced to %d\n", version)
					return nil
				})
			},
		},
	)

	return cmd
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(m Migrator) error {
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
		}
		cmd.Println("Migrations completed successfully")
		return nil
	})
}

func withMigrator(cmd *cobra.Command, fn func(Migrator) error) error {
	databaseURL, err := getDatabaseURL(os.Getenv)
	if err != nil {
		return err
	}

	m, err := newMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			cmd.PrintErrf("failed to close migrator: %v\n", closeErr)
		}
	}()

	return fn(m)
}

func printVersion(cmd *cobra.Command, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
	}
	pending, err := m.Pending()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "list pending").Wrap(err)
	}

	state := "clean"
	if dirty {
		state = "dirty"
	}
	cmd.Printf("Version: %d (%s)\n", version, state)
	cmd.Printf("Pending: %d\n", len(pending))
	return nil
}

// parseForceVersion reads a version number for migrate force. Like Sscanf it
// accepts leading whitespace and stops at the first non-digit.
func parseForceVersion(s string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(s, "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer")
	}
	return version, nil
}

func getDatabaseURL(getenv config.Getenv) (string, error) {
	databaseURL := strings.TrimSpace(getenv(config.EnvDatabaseURL))
	if databaseURL == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", config.EnvDatabaseURL)
	}
	return databaseURL, nil
}
