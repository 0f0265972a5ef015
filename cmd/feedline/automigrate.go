// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/store"
)

// AutoMigrator is the part of store.Migrator used on startup.
type AutoMigrator interface {
	Up() error
	Close() error
}

// MigratorFactory opens a migrator for a database URL.
type MigratorFactory func(databaseURL string) (AutoMigrator, error)

func defaultMigratorFactory(databaseURL string) (AutoMigrator, error) {
	return store.NewMigrator(databaseURL)
}

// runAutoMigration applies all pending migrations.
func runAutoMigration(databaseURL string, factory MigratorFactory) error {
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	slog.Info("database migrations applied")
	return nil
}
