// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/config"
	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/internal/httpapi"
	"github.com/lipodem/trackpanel/internal/logging"
	"github.com/lipodem/trackpanel/internal/observability"
)

const serviceName = "trackpanel"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API server",
		Long: `Start the HTTP API serving login, password change, patient
registration and session endpoints, plus the metrics/health listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if deps.ConfigLoader == nil {
		deps.ConfigLoader = config.Load
	}
	if deps.CredentialStoreFactory == nil {
		deps.CredentialStoreFactory = openCredentialStore
	}
	if deps.SessionStoreFactory == nil {
		deps.SessionStoreFactory = openSessionStore
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, registrars ...observability.Registrar) ObservabilityServer {
			return observability.NewServer(addr, ready, registrars...)
		}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}
	if deps.LogWriter == nil {
		deps.LogWriter = os.Stderr
	}

	cfg, err := deps.ConfigLoader(config.LoadOptions{Path: configFile, Flags: cmd.Flags()})
	if err != nil {
		return oops.With("operation", "load configuration").Wrap(err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.Setup(serviceName, version, cfg.Log.Format, deps.LogWriter, logging.WithLevel(level))
	slog.SetDefault(logger)

	logger.Info("starting trackpanel",
		"http_addr", cfg.HTTP.Addr,
		"credential_backend", cfg.Credentials.Backend,
		"session_backend", cfg.Sessions.Backend,
	)

	credStore, closeCreds, err := deps.CredentialStoreFactory(ctx, cfg)
	if err != nil {
		return oops.With("operation", "open credential store").Wrap(err)
	}
	defer closeCreds()

	sessionStore, closeSessions, err := deps.SessionStoreFactory(ctx, cfg)
	if err != nil {
		return oops.With("operation", "open session store").Wrap(err)
	}
	defer closeSessions()

	sessions, err := auth.NewSessionManager(sessionStore,
		auth.WithSessionTimeout(cfg.Sessions.Timeout),
		auth.WithJanitorInterval(cfg.Sessions.JanitorInterval),
		auth.WithSessionLogger(logger),
	)
	if err != nil {
		return err
	}
	sessions.Start()
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			logger.Warn("error stopping session janitor", "error", closeErr)
		}
	}()

	svc, err := newService(cfg, credStore, sessions, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready.Load,
			auth.RegisterMetrics, credentials.RegisterMetrics)
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return oops.With("operation", "start observability server").Wrap(startErr)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer stopCancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				logger.Warn("error stopping observability server", "error", stopErr)
			}
		}()
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
	}

	api, err := httpapi.NewServer(svc,
		httpapi.WithLogger(logger),
		httpapi.WithAllowedOrigins(cfg.HTTP.AllowedOrigins...),
		httpapi.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	httpSrv := &http.Server{
		Handler:           api.Router(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	ready.Store(true)
	addr := listener.Addr().String()
	logger.Info("api server listening", "addr", addr)
	cmd.Println("trackpanel started on " + addr)
	if deps.Ready != nil {
		deps.Ready(addr)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case serveErr := <-errChan:
		runErr = oops.Code("SERVE_FAILED").Wrap(serveErr)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	ready.Store(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server error", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
