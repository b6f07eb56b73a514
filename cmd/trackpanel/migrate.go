// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lipodem/trackpanel/internal/config"
	"github.com/lipodem/trackpanel/internal/store"
)

// migrator wraps the methods used from store.Migrator.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// newMigrator is replaced in tests.
var newMigrator = func(databaseURL string) (migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply all pending migrations for the credential and session tables.
The database URL is read from ` + config.EnvPrefix + `DATABASE_URL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}

	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error {
				var err error
				if steps > 0 {
					err = m.Steps(-steps)
				} else {
					err = m.Down()
				}
				if err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
				}
				cmd.Println("Rollback completed successfully")
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back (0 = all)")
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				name, err := store.MigrationName(version)
				if err != nil {
					return err
				}
				if name == "" {
					name = "none"
				}
				cmd.Printf("Current version: %d (%s)\n", version, name)
				if dirty {
					cmd.Println("State: DIRTY (fix manually, then run `migrate force`)")
				}
				if len(pending) == 0 {
					cmd.Println("Pending: none")
					return nil
				}
				parts := make([]string, len(pending))
				for i, v := range pending {
					parts[i] = fmt.Sprint(v)
				}
				cmd.Printf("Pending: %s\n", strings.Join(parts, ", "))
				return nil
			})
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the migration version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(func(m migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced version %d\n", version)
				return nil
			})
		},
	}
}

func withMigrator(fn func(m migrator) error) error {
	databaseURL, err := getDatabaseURL()
	if err != nil {
		return err
	}
	m, err := newMigrator(databaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer func() {
		_ = m.Close() //nolint:errcheck // command result takes precedence
	}()
	return fn(m)
}

func getDatabaseURL() (string, error) {
	secrets, err := config.LoadSecrets(nil)
	if err != nil {
		return "", err
	}
	if secrets.DatabaseURL == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("%sDATABASE_URL environment variable is required", config.EnvPrefix)
	}
	return secrets.DatabaseURL, nil
}

// parseForceVersion reads the leading integer of s.
func parseForceVersion(s string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer: %q", s)
	}
	return version, nil
}
