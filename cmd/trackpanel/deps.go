// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"
	"net"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/config"
	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/internal/observability"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// ConfigLoader builds the configuration.
	// Default: config.Load
	ConfigLoader func(opts config.LoadOptions) (*config.Config, error)

	// CredentialStoreFactory opens the configured credential store. The
	// returned cleanup is always non-nil.
	// Default: openCredentialStore
	CredentialStoreFactory func(ctx context.Context, cfg *config.Config) (credentials.Store, func(), error)

	// SessionStoreFactory opens the configured session store.
	// Default: openSessionStore
	SessionStoreFactory func(ctx context.Context, cfg *config.Config) (auth.SessionStore, func(), error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker, registrars ...observability.Registrar) ObservabilityServer

	// ListenerFactory creates the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// LogWriter receives log output.
	// Default: os.Stderr
	LogWriter io.Writer

	// Ready is called with the API address once requests are accepted.
	Ready func(addr string)
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}
