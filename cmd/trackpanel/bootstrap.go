// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/config"
)

// NewBootstrapAdminCmd creates the bootstrap-admin subcommand.
func NewBootstrapAdminCmd() *cobra.Command {
	var username, fullName string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the first admin account",
		Long: `Create the first admin account in the configured credential store.
The password is read from the terminal, or one line of stdin.
Fails once any admin account exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBootstrapAdmin(cmd, username, fullName)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username (required)")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name (defaults to the username)")
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runBootstrapAdmin(cmd *cobra.Command, username, fullName string) error {
	if username == "" {
		return oops.Code(auth.CodeInvalidInput).Errorf("--username is required")
	}

	cfg, err := config.Load(config.LoadOptions{Path: configFile, Flags: cmd.Flags()})
	if err != nil {
		return oops.With("operation", "load configuration").Wrap(err)
	}
	logger := slog.Default()
	// The first admin usually precedes the document.
	cfg.Credentials.CreateIfMissing = true

	ctx := cmd.Context()
	credStore, closeCreds, err := openCredentialStore(ctx, cfg)
	if err != nil {
		return oops.With("operation", "open credential store").Wrap(err)
	}
	defer closeCreds()

	// No session is issued, so an in-process store suffices.
	sessions, err := auth.NewSessionManager(auth.NewMemorySessionStore(), auth.WithSessionLogger(logger))
	if err != nil {
		return err
	}

	svc, err := newService(cfg, credStore, sessions, logger)
	if err != nil {
		return err
	}

	password, err := readPassword(cmd, "Admin password: ")
	if err != nil {
		return err
	}

	view, err := svc.BootstrapAdmin(ctx, username, password, fullName)
	if err != nil {
		return err
	}

	cmd.Printf("Created admin %s (%s)\n", view.Username, view.ID)
	if cfg.Credentials.Backend == config.BackendMemory {
		cmd.PrintErrln("warning: memory credential store is not persisted")
	}
	return nil
}
