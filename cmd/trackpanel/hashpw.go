// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lipodem/trackpanel/internal/auth"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	cfg := auth.HasherConfig{Algorithm: auth.AlgorithmArgon2id, BcryptCost: auth.DefaultBcryptCost}

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for a credential document",
		Long: `Read a password from the terminal (or one line of stdin) and print
its hash in the format stored in the credential document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hasher, err := auth.NewHasher(cfg)
			if err != nil {
				return err
			}
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			if password == "" {
				return oops.Code(auth.CodeInvalidInput).Errorf("password must not be empty")
			}
			hash, err := hasher.Hash(password)
			if err != nil {
				return oops.With("operation", "hash password").Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Algorithm, "algorithm", cfg.Algorithm, "hash algorithm (argon2id, bcrypt)")
	cmd.Flags().IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "bcrypt cost factor")

	return cmd
}

// readPassword prompts on a terminal without echo, or reads the first
// line of the command's input otherwise.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		cmd.PrintErr(prompt)
		raw, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // fd fits in int
		cmd.PrintErrln()
		if err != nil {
			return "", oops.With("operation", "read password").Wrap(err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", oops.With("operation", "read password").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
