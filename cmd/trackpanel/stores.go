// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/lipodem/trackpanel/internal/auth"
	authpg "github.com/lipodem/trackpanel/internal/auth/postgres"
	authredis "github.com/lipodem/trackpanel/internal/auth/redis"
	"github.com/lipodem/trackpanel/internal/config"
	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/internal/credentials/github"
	credpg "github.com/lipodem/trackpanel/internal/credentials/postgres"
	"github.com/lipodem/trackpanel/internal/credentials/s3"
	"github.com/lipodem/trackpanel/internal/store"
)

func noop() {}

// openCredentialStore builds the configured backend wrapped with metrics.
func openCredentialStore(ctx context.Context, cfg *config.Config) (credentials.Store, func(), error) {
	backend := cfg.Credentials.Backend
	switch backend {
	case config.BackendMemory:
		seed, err := loadSeed(cfg.Credentials.Memory.SeedFile)
		if err != nil {
			return nil, noop, err
		}
		mem, err := credentials.NewMemoryStore(seed)
		if err != nil {
			return nil, noop, err
		}
		slog.Warn("using in-memory credential store; changes are lost on exit")
		return credentials.Instrument(backend, mem), noop, nil

	case config.BackendGitHub:
		g := cfg.Credentials.GitHub
		gh, err := github.New(github.Config{
			BaseURL: g.BaseURL,
			Owner:   g.Owner,
			Repo:    g.Repo,
			Path:    g.Path,
			Branch:  g.Branch,
			Token:   cfg.Secrets.GitHubToken,

			CreateIfMissing: cfg.Credentials.CreateIfMissing,
		})
		if err != nil {
			return nil, noop, err
		}
		return credentials.Instrument(backend, gh), noop, nil

	case config.BackendS3:
		c := cfg.Credentials.S3
		st, err := s3.NewFromConfig(ctx, s3.Config{
			Bucket:    c.Bucket,
			Key:       c.Key,
			Region:    c.Region,
			Endpoint:  c.Endpoint,
			AccessKey: cfg.Secrets.S3AccessKey,
			SecretKey: cfg.Secrets.S3SecretKey,

			CreateIfMissing: cfg.Credentials.CreateIfMissing,
		})
		if err != nil {
			return nil, noop, err
		}
		return credentials.Instrument(backend, st), noop, nil

	case config.BackendPostgres:
		pool, err := store.NewPool(ctx, cfg.Secrets.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		st := credpg.New(pool, cfg.Credentials.Postgres.Record,
			credpg.WithCreateIfMissing(cfg.Credentials.CreateIfMissing))
		return credentials.Instrument(backend, st), pool.Close, nil
	}
	return nil, noop, oops.Code("CONFIG_INVALID").With("backend", backend).Errorf("unknown credential backend %q", backend)
}

func loadSeed(path string) (*credentials.Record, error) {
	if path == "" {
		return nil, nil //nolint:nilnil // no seed means an empty document
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
	}
	rec, err := credentials.Decode(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return rec, nil
}

// openSessionStore builds the configured session backend.
func openSessionStore(ctx context.Context, cfg *config.Config) (auth.SessionStore, func(), error) {
	switch cfg.Sessions.Backend {
	case config.BackendMemory:
		return auth.NewMemorySessionStore(), noop, nil

	case config.BackendPostgres:
		pool, err := store.NewPool(ctx, cfg.Secrets.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return authpg.NewSessionStore(pool), pool.Close, nil

	case config.BackendRedis:
		r := cfg.Sessions.Redis
		client := goredis.NewClient(&goredis.Options{
			Addr:     r.Addr,
			Password: cfg.Secrets.RedisPassword,
			DB:       r.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, oops.Code("REDIS_CONNECT_FAILED").With("addr", r.Addr).Wrap(err)
		}
		var opts []authredis.Option
		if r.Prefix != "" {
			opts = append(opts, authredis.WithPrefix(r.Prefix))
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				slog.Debug("error closing redis client", "error", err)
			}
		}
		return authredis.NewSessionStore(client, opts...), closeClient, nil
	}
	return nil, noop, oops.Code("CONFIG_INVALID").
		With("backend", cfg.Sessions.Backend).
		Errorf("unknown session backend %q", cfg.Sessions.Backend)
}

// newService assembles the authentication service from cfg.
func newService(cfg *config.Config, credStore credentials.Store, sessions *auth.SessionManager, logger *slog.Logger) (*auth.Service, error) {
	hasher, err := auth.NewHasher(cfg.Hasher)
	if err != nil {
		return nil, err
	}
	opts := []auth.ServiceOption{
		auth.WithLogger(logger),
		auth.WithLockoutPolicy(cfg.Lockout),
		auth.WithMinPasswordLength(cfg.Passwords.MinLength),
		auth.WithConflictRetries(cfg.Conflict.Attempts, cfg.Conflict.Backoff),
	}
	if cfg.Bearer.Enabled {
		issuer, ierr := auth.NewJWTIssuer(cfg.Secrets.JWTSecret,
			auth.WithBearerTTL(cfg.Bearer.TTL),
			auth.WithIssuerName(cfg.Bearer.Issuer),
		)
		if ierr != nil {
			return nil, ierr
		}
		opts = append(opts, auth.WithBearerTokens(issuer))
	}
	return auth.NewService(credStore, hasher, sessions, opts...)
}
