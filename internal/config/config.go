// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads trackpanel configuration.
//
// Settings are layered: built-in defaults, then the YAML file, then
// command-line flags that were set explicitly. Secrets never come from the
// file or flags; they are read from TRACKPANEL_* environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/xdg"
)

// EnvPrefix prefixes every secret environment variable.
const EnvPrefix = "TRACKPANEL_"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendGitHub   = "github"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var (
	credentialBackends = []string{BackendMemory, BackendGitHub, BackendS3, BackendPostgres}
	sessionBackends    = []string{BackendMemory, BackendPostgres, BackendRedis}
)

// Config is the complete runtime configuration.
type Config struct {
	Log         LogConfig          `koanf:"log"`
	HTTP        HTTPConfig         `koanf:"http"`
	Metrics     MetricsConfig      `koanf:"metrics"`
	Credentials CredentialsConfig  `koanf:"credentials"`
	Sessions    SessionsConfig     `koanf:"sessions"`
	Bearer      BearerConfig       `koanf:"bearer"`
	Lockout     auth.LockoutPolicy `koanf:"lockout"`
	Hasher      auth.HasherConfig  `koanf:"hasher"`
	Passwords   PasswordsConfig    `koanf:"passwords"`
	Conflict    ConflictConfig     `koanf:"conflict"`

	Secrets Secrets `koanf:"-"`
}

// LogConfig selects the log output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	AllowedOrigins    []string      `koanf:"allowed_origins"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// CredentialsConfig selects and locates the credential document.
type CredentialsConfig struct {
	Backend string `koanf:"backend"`
	// CreateIfMissing lets a remote backend start from an empty document
	// when none exists yet. Off by default so a wrong path fails loudly.
	CreateIfMissing bool `koanf:"create_if_missing"`

	Memory   MemoryConfig   `koanf:"memory"`
	GitHub   GitHubConfig   `koanf:"github"`
	S3       S3Config       `koanf:"s3"`
	Postgres PostgresConfig `koanf:"postgres"`
}

// MemoryConfig optionally seeds the in-process store from a credential
// document on disk.
type MemoryConfig struct {
	SeedFile string `koanf:"seed_file"`
}

// GitHubConfig locates the document in a repository.
type GitHubConfig struct {
	BaseURL string `koanf:"base_url"`
	Owner   string `koanf:"owner"`
	Repo    string `koanf:"repo"`
	Path    string `koanf:"path"`
	Branch  string `koanf:"branch"`
}

// S3Config locates the document in a bucket.
type S3Config struct {
	Bucket   string `koanf:"bucket"`
	Key      string `koanf:"key"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
}

// PostgresConfig names the credential row.
type PostgresConfig struct {
	Record string `koanf:"record"`
}

// SessionsConfig configures server sessions.
type SessionsConfig struct {
	Backend         string        `koanf:"backend"`
	Timeout         time.Duration `koanf:"timeout"`
	JanitorInterval time.Duration `koanf:"janitor_interval"`
	Redis           RedisConfig   `koanf:"redis"`
}

// RedisConfig locates the Redis session store.
type RedisConfig struct {
	Addr   string `koanf:"addr"`
	DB     int    `koanf:"db"`
	Prefix string `koanf:"prefix"`
}

// BearerConfig configures signed bearer tokens.
type BearerConfig struct {
	Enabled bool          `koanf:"enabled"`
	TTL     time.Duration `koanf:"ttl"`
	Issuer  string        `koanf:"issuer"`
}

// PasswordsConfig holds password rules.
type PasswordsConfig struct {
	MinLength int `koanf:"min_length"`
}

// ConflictConfig bounds retries of conflicting credential writes.
type ConflictConfig struct {
	Attempts int           `koanf:"attempts"`
	Backoff  time.Duration `koanf:"backoff"`
}

// Secrets are read from the environment only.
type Secrets struct {
	JWTSecret     string `env:"JWT_SECRET"`
	GitHubToken   string `env:"GITHUB_TOKEN"`
	DatabaseURL   string `env:"DATABASE_URL"`
	S3AccessKey   string `env:"S3_ACCESS_KEY"`
	S3SecretKey   string `env:"S3_SECRET_KEY"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Format: "json", Level: "info"},
		HTTP: HTTPConfig{
			Addr:              "127.0.0.1:8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Metrics:     MetricsConfig{Addr: "127.0.0.1:9100"},
		Credentials: CredentialsConfig{Backend: BackendMemory, Postgres: PostgresConfig{Record: "default"}},
		Sessions: SessionsConfig{
			Backend:         BackendMemory,
			Timeout:         auth.DefaultSessionTimeout,
			JanitorInterval: 5 * time.Minute,
			Redis:           RedisConfig{Addr: "127.0.0.1:6379"},
		},
		Bearer:    BearerConfig{Enabled: true, TTL: auth.DefaultBearerTTL, Issuer: auth.DefaultIssuer},
		Lockout:   auth.DefaultLockoutPolicy(),
		Hasher:    auth.HasherConfig{Algorithm: auth.AlgorithmArgon2id, BcryptCost: auth.DefaultBcryptCost},
		Passwords: PasswordsConfig{MinLength: auth.DefaultMinPasswordLength},
		Conflict:  ConflictConfig{Attempts: auth.DefaultConflictAttempts, Backoff: auth.DefaultConflictBackoff},
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"addr":             "http.addr",
	"metrics-addr":     "metrics.addr",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"store":            "credentials.backend",
	"sessions":         "sessions.backend",
	"session-timeout":  "sessions.timeout",
	"allowed-origin":   "http.allowed_origins",
	"hash-algorithm":   "hasher.algorithm",
	"bcrypt-cost":      "hasher.bcrypt_cost",
	"min-password-len": "passwords.min_length",
	"bearer":           "bearer.enabled",
	"lockout-attempts": "lockout.max_attempts",
	"lockout-duration": "lockout.duration",
}

// RegisterFlags adds the flags Load understands to fs. Flag defaults are
// informational; only flags set explicitly override the file.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.HTTP.Addr, "API listen address")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("store", d.Credentials.Backend, "credential store backend (memory, github, s3, postgres)")
	fs.String("sessions", d.Sessions.Backend, "session store backend (memory, postgres, redis)")
	fs.Duration("session-timeout", d.Sessions.Timeout, "server session lifetime")
	fs.StringSlice("allowed-origin", nil, "CORS allowed origin (repeatable, * for any)")
	fs.String("hash-algorithm", d.Hasher.Algorithm, "password hash algorithm (argon2id or bcrypt)")
	fs.Int("bcrypt-cost", d.Hasher.BcryptCost, "bcrypt work factor")
	fs.Int("min-password-len", d.Passwords.MinLength, "minimum password length")
	fs.Bool("bearer", d.Bearer.Enabled, "issue signed bearer tokens on login")
	fs.Int("lockout-attempts", d.Lockout.MaxAttempts, "failed logins before lockout")
	fs.Duration("lockout-duration", d.Lockout.Duration, "lockout length")
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is the YAML file. Empty means the XDG default, which may be
	// absent; an explicit Path must exist.
	Path string

	// Flags are parsed command-line flags registered with RegisterFlags.
	Flags *pflag.FlagSet

	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// Load builds the configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		def, err := xdg.ConfigFile()
		if err != nil {
			return nil, err
		}
		path = def
	}
	if err := loadFile(k, path, explicit); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
		}
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode configuration").Wrap(err)
	}

	secrets, err := LoadSecrets(opts.Environment)
	if err != nil {
		return nil, err
	}
	cfg.Secrets = secrets

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSecrets reads the TRACKPANEL_* variables from environment, or from
// the process environment when it is nil.
func LoadSecrets(environment map[string]string) (Secrets, error) {
	var secrets Secrets
	opts := env.Options{Prefix: EnvPrefix}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(&secrets, opts); err != nil {
		return Secrets{}, oops.Code("CONFIG_INVALID").With("operation", "read secrets").Wrap(err)
	}
	return secrets, nil
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_INVALID").With("path", path).With("operation", "parse file").Wrap(err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http address is required")
	}
	if c.HTTP.ReadHeaderTimeout <= 0 || c.HTTP.ShutdownTimeout <= 0 {
		return invalid("http", "http timeouts must be positive")
	}

	switch c.Credentials.Backend {
	case BackendGitHub:
		g := c.Credentials.GitHub
		if g.Owner == "" || g.Repo == "" || g.Path == "" {
			return invalid("credentials.github", "github backend requires owner, repo and path")
		}
		if c.Secrets.GitHubToken == "" {
			return invalid("credentials.github", "github backend requires %sGITHUB_TOKEN", EnvPrefix)
		}
	case BackendS3:
		s := c.Credentials.S3
		if s.Bucket == "" || s.Key == "" || s.Region == "" {
			return invalid("credentials.s3", "s3 backend requires bucket, key and region")
		}
		if (c.Secrets.S3AccessKey == "") != (c.Secrets.S3SecretKey == "") {
			return invalid("credentials.s3", "s3 access key and secret key must be set together")
		}
	case BackendPostgres:
		if c.Credentials.Postgres.Record == "" {
			return invalid("credentials.postgres.record", "postgres backend requires a record name")
		}
	case BackendMemory:
	default:
		return invalid("credentials.backend", "unknown credential backend %q (want one of %s)",
			c.Credentials.Backend, strings.Join(credentialBackends, ", "))
	}
	if c.Credentials.Backend == BackendPostgres || c.Sessions.Backend == BackendPostgres {
		if c.Secrets.DatabaseURL == "" {
			return invalid("secrets", "postgres requires %sDATABASE_URL", EnvPrefix)
		}
	}

	if !slices.Contains(sessionBackends, c.Sessions.Backend) {
		return invalid("sessions.backend", "unknown session backend %q (want one of %s)",
			c.Sessions.Backend, strings.Join(sessionBackends, ", "))
	}
	if c.Sessions.Backend == BackendRedis && c.Sessions.Redis.Addr == "" {
		return invalid("sessions.redis.addr", "redis backend requires an address")
	}
	if c.Sessions.Timeout <= 0 {
		return invalid("sessions.timeout", "session timeout must be positive")
	}
	if c.Sessions.JanitorInterval < 0 {
		return invalid("sessions.janitor_interval", "janitor interval must not be negative")
	}

	if c.Bearer.Enabled {
		if c.Bearer.TTL <= 0 {
			return invalid("bearer.ttl", "bearer ttl must be positive")
		}
		if c.Secrets.JWTSecret == "" {
			return invalid("secrets", "bearer tokens require %sJWT_SECRET", EnvPrefix)
		}
	}

	if c.Lockout.MaxAttempts < 1 {
		return invalid("lockout.max_attempts", "lockout max attempts must be at least 1")
	}
	if c.Lockout.Duration <= 0 {
		return invalid("lockout.duration", "lockout duration must be positive")
	}
	if c.Hasher.Algorithm != auth.AlgorithmArgon2id && c.Hasher.Algorithm != auth.AlgorithmBcrypt {
		return invalid("hasher.algorithm", "unsupported password hash algorithm %q", c.Hasher.Algorithm)
	}
	if c.Passwords.MinLength < 1 {
		return invalid("passwords.min_length", "minimum password length must be at least 1")
	}
	if c.Conflict.Attempts < 1 {
		return invalid("conflict.attempts", "conflict attempts must be at least 1")
	}
	if c.Conflict.Backoff <= 0 {
		return invalid("conflict.backoff", "conflict backoff must be positive")
	}
	return nil
}
