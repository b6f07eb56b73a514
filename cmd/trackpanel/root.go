// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the trackpanel CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trackpanel",
		Short: "trackpanel - authentication for the clinical tracking panel",
		Long: `trackpanel serves login, password and patient-registration APIs
backed by a shared credential document under optimistic concurrency.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/trackpanel/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewBootstrapAdminCmd())
	cmd.AddCommand(NewValidateCmd())

	return cmd
}
