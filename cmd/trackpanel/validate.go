// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lipodem/trackpanel/internal/credentials"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a credential document without starting the server",
		Long: `Validates a credential document against the document schema and
checks account invariants (ids present, usernames unique).
Does NOT start the server or contact any store.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines before committing a document change:
  trackpanel validate users.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is an operator argument
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	rec, err := credentials.Decode(data)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	if err := rec.Check(); err != nil {
		return oops.With("path", path).Wrap(err)
	}
	cmd.Printf("%s: valid (%d users, %d patients)\n", path, len(rec.Users), len(rec.Patients))
	return nil
}
