// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/pkg/errutil"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func baseEnv() map[string]string {
	return map[string]string{"TRACKPANEL_JWT_SECRET": testJWTSecret}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(LoadOptions{Environment: baseEnv()})
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Credentials.Backend)
	assert.Equal(t, BackendMemory, cfg.Sessions.Backend)
	assert.False(t, cfg.Credentials.CreateIfMissing)
	assert.Equal(t, auth.DefaultSessionTimeout, cfg.Sessions.Timeout)
	assert.Equal(t, auth.DefaultLockoutPolicy(), cfg.Lockout)
	assert.Equal(t, auth.DefaultMinPasswordLength, cfg.Passwords.MinLength)
	assert.Equal(t, testJWTSecret, cfg.Secrets.JWTSecret)
}

func TestLoad_ReadsXDGDefaultFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "trackpanel"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(base, "trackpanel", "config.yaml"),
		[]byte("http:\n  addr: 0.0.0.0:9000\n"), 0o600))

	cfg, err := Load(LoadOptions{Environment: baseEnv()})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":8443"
  allowed_origins:
    - https://panel.example.org
credentials:
  backend: github
  create_if_missing: true
  github:
    owner: clinic
    repo: data
    path: credentials.json
lockout:
  max_attempts: 3
  duration: 10m
sessions:
  timeout: 1h
`)
	env := baseEnv()
	env["TRACKPANEL_GITHUB_TOKEN"] = "ghp_test"

	cfg, err := Load(LoadOptions{Path: path, Environment: env})
	require.NoError(t, err)

	assert.Equal(t, ":8443", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://panel.example.org"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, BackendGitHub, cfg.Credentials.Backend)
	assert.Equal(t, "clinic", cfg.Credentials.GitHub.Owner)
	assert.True(t, cfg.Credentials.CreateIfMissing)
	assert.Equal(t, 3, cfg.Lockout.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Lockout.Duration)
	assert.Equal(t, time.Hour, cfg.Sessions.Timeout)
	assert.Equal(t, "ghp_test", cfg.Secrets.GitHubToken)
	// untouched keys keep their defaults
	assert.Equal(t, auth.DefaultConflictAttempts, cfg.Conflict.Attempts)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ChangedFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "http:\n  addr: \":8443\"\nlog:\n  format: text\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--addr", ":7000", "--lockout-attempts", "7"}))

	cfg, err := Load(LoadOptions{Path: path, Flags: fs, Environment: baseEnv()})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, 7, cfg.Lockout.MaxAttempts)
	// unset flag does not clobber the file value
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "absent.yaml"), Environment: baseEnv()})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := writeConfig(t, "http: [unclosed\n")
	_, err := Load(LoadOptions{Path: path, Environment: baseEnv()})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestLoad_SecretsIgnoreFileContents(t *testing.T) {
	path := writeConfig(t, "secrets:\n  jwtsecret: from-file\n")
	_, err := Load(LoadOptions{Path: path, Environment: map[string]string{}})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "field", "secrets")
}

func validConfig() Config {
	cfg := Default()
	cfg.Secrets.JWTSecret = testJWTSecret
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"unknown credential backend", func(c *Config) { c.Credentials.Backend = "dropbox" }, "credentials.backend"},
		{"unknown session backend", func(c *Config) { c.Sessions.Backend = "memcached" }, "sessions.backend"},
		{"github without repo", func(c *Config) {
			c.Credentials.Backend = BackendGitHub
			c.Credentials.GitHub.Owner = "clinic"
		}, "credentials.github"},
		{"github without token", func(c *Config) {
			c.Credentials.Backend = BackendGitHub
			c.Credentials.GitHub = GitHubConfig{Owner: "clinic", Repo: "data", Path: "credentials.json"}
		}, "credentials.github"},
		{"s3 without bucket", func(c *Config) { c.Credentials.Backend = BackendS3 }, "credentials.s3"},
		{"s3 with half a key pair", func(c *Config) {
			c.Credentials.Backend = BackendS3
			c.Credentials.S3 = S3Config{Bucket: "b", Key: "credentials.json", Region: "eu-west-1"}
			c.Secrets.S3AccessKey = "AKIA"
		}, "credentials.s3"},
		{"postgres without database url", func(c *Config) { c.Credentials.Backend = BackendPostgres }, "secrets"},
		{"postgres sessions without database url", func(c *Config) { c.Sessions.Backend = BackendPostgres }, "secrets"},
		{"redis without address", func(c *Config) {
			c.Sessions.Backend = BackendRedis
			c.Sessions.Redis.Addr = ""
		}, "sessions.redis.addr"},
		{"zero session timeout", func(c *Config) { c.Sessions.Timeout = 0 }, "sessions.timeout"},
		{"negative janitor interval", func(c *Config) { c.Sessions.JanitorInterval = -time.Second }, "sessions.janitor_interval"},
		{"missing jwt secret", func(c *Config) { c.Secrets.JWTSecret = "" }, "secrets"},
		{"zero bearer ttl", func(c *Config) { c.Bearer.TTL = 0 }, "bearer.ttl"},
		{"zero lockout attempts", func(c *Config) { c.Lockout.MaxAttempts = 0 }, "lockout.max_attempts"},
		{"zero lockout duration", func(c *Config) { c.Lockout.Duration = 0 }, "lockout.duration"},
		{"unknown hash algorithm", func(c *Config) { c.Hasher.Algorithm = "md5" }, "hasher.algorithm"},
		{"zero password length", func(c *Config) { c.Passwords.MinLength = 0 }, "passwords.min_length"},
		{"zero conflict attempts", func(c *Config) { c.Conflict.Attempts = 0 }, "conflict.attempts"},
		{"zero conflict backoff", func(c *Config) { c.Conflict.Backoff = 0 }, "conflict.backoff"},
		{"zero shutdown timeout", func(c *Config) { c.HTTP.ShutdownTimeout = 0 }, "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "field", tt.field)
		})
	}
}

func TestValidate_AcceptsCompleteBackends(t *testing.T) {
	cfg := validConfig()
	cfg.Bearer.Enabled = false
	cfg.Secrets.JWTSecret = ""
	require.NoError(t, cfg.Validate(), "bearer tokens disabled need no secret")

	cfg = validConfig()
	cfg.Credentials.Backend = BackendS3
	cfg.Credentials.S3 = S3Config{Bucket: "b", Key: "credentials.json", Region: "eu-west-1"}
	require.NoError(t, cfg.Validate(), "s3 falls back to the default credential chain")

	cfg = validConfig()
	cfg.Credentials.Backend = BackendPostgres
	cfg.Sessions.Backend = BackendRedis
	cfg.Secrets.DatabaseURL = "postgres://localhost/trackpanel"
	require.NoError(t, cfg.Validate())
}

func TestLoadSecrets(t *testing.T) {
	secrets, err := LoadSecrets(map[string]string{
		"TRACKPANEL_DATABASE_URL":   "postgres://localhost/trackpanel",
		"TRACKPANEL_REDIS_PASSWORD": "hunter2",
		"DATABASE_URL":              "postgres://ignored/without-prefix",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/trackpanel", secrets.DatabaseURL)
	assert.Equal(t, "hunter2", secrets.RedisPassword)
	assert.Empty(t, secrets.JWTSecret)
}

func TestLoadSecrets_ProcessEnvironment(t *testing.T) {
	t.Setenv("TRACKPANEL_S3_ACCESS_KEY", "AKIA")
	secrets, err := LoadSecrets(nil)
	require.NoError(t, err)
	assert.Equal(t, "AKIA", secrets.S3AccessKey)
}
