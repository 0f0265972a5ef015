// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

// Package config loads Feedline server configuration from flag defaults, an
// optional YAML file, command-line flags and the environment, in that order
// of increasing precedence (the environment only fills secrets left empty).
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Environment variables consulted for values that should not live in files.
const (
	EnvTokenSecret = "FEEDLINE_TOKEN_SECRET"
	EnvJWTSecret   = "JWT_SECRET"
	EnvDatabaseURL = "DATABASE_URL"
)

// Default values for flags.
const (
	DefaultHTTPAddr       = ":8080"
	DefaultMetricsAddr    = "127.0.0.1:9100"
	DefaultLogFormat      = "json"
	DefaultLogLevel       = "info"
	DefaultStorage        = StoragePostgres
	DefaultTokenTTL       = "1h"
	DefaultTokenIssuer    = "feedline"
	DefaultImageDir       = "images"
	DefaultPageSize       = 2
	DefaultEventBuffer    = 100
	DefaultConnectRetries = 5
)

// Config is the serve configuration. Keys are the koanf tags; flags use the
// same names with dashes.
type Config struct {
	HTTPAddr       string   `koanf:"http_addr" jsonschema:"description=API listen address"`
	MetricsAddr    string   `koanf:"metrics_addr" jsonschema:"description=Metrics and health listen address (empty disables)"`
	LogFormat      string   `koanf:"log_format" jsonschema:"enum=json,enum=text"`
	LogLevel       string   `koanf:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Storage        string   `koanf:"storage" jsonschema:"enum=postgres,enum=memory"`
	DatabaseURL    string   `koanf:"database_url" jsonschema:"description=PostgreSQL connection URL"`
	AutoMigrate    bool     `koanf:"auto_migrate" jsonschema:"description=Apply pending migrations on start"`
	ConnectRetries uint64   `koanf:"connect_retries" jsonschema:"minimum=0"`
	TokenSecret    string   `koanf:"token_secret" jsonschema:"description=HMAC key for access tokens"`
	TokenTTL       string   `koanf:"token_ttl" jsonschema:"description=Access token lifetime as a Go duration,example=1h"`
	TokenIssuer    string   `koanf:"token_issuer"`
	ImageDir       string   `koanf:"image_dir" jsonschema:"description=Directory for uploaded images"`
	PageSize       int      `koanf:"page_size" jsonschema:"minimum=1"`
	EventBuffer    int      `koanf:"event_buffer" jsonschema:"minimum=1"`
	CORSOrigins    []string `koanf:"cors_origins" jsonschema:"description=Allowed origin glob patterns"`
}

// RegisterFlags adds one flag per Config key to fs. The flag defaults are
// the configuration defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("storage", DefaultStorage, "storage backend (postgres or memory)")
	fs.String("database-url", "", "PostgreSQL URL (default: $DATABASE_URL)")
	fs.Bool("auto-migrate", false, "apply pending migrations on start")
	fs.Uint64("connect-retries", DefaultConnectRetries, "database connect retries")
	fs.String("token-secret", "", "token signing secret (default: $FEEDLINE_TOKEN_SECRET or $JWT_SECRET)")
	fs.String("token-ttl", DefaultTokenTTL, "access token lifetime")
	fs.String("token-issuer", DefaultTokenIssuer, "access token issuer")
	fs.String("image-dir", DefaultImageDir, "directory for uploaded images")
	fs.Int("page-size", DefaultPageSize, "posts per feed page")
	fs.Int("event-buffer", DefaultEventBuffer, "per-subscriber event buffer")
	fs.StringSlice("cors-origin", []string{"*"}, "allowed CORS origin glob (repeatable)")
}

// flagKey maps a flag name to its Config key. Flags without a key are skipped.
func flagKey(name string) string {
	switch name {
	case "config":
		return ""
	case "cors-origin":
		return "cors_origins"
	default:
		return strings.ReplaceAll(name, "-", "_")
	}
}

// Getenv looks up an environment variable.
type Getenv func(key string) string

// Load builds a Config. path may be empty. getenv defaults to os.Getenv.
func Load(path string, fs *pflag.FlagSet, getenv Getenv) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
		}
	}

	// Unchanged flags only fill keys the file did not set.
	provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		key := flagKey(f.Name)
		if key == "" {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}

	cfg.applyEnv(getenv)
	return &cfg, nil
}

func (c *Config) applyEnv(getenv Getenv) {
	if c.TokenSecret == "" {
		c.TokenSecret = getenv(EnvTokenSecret)
	}
	if c.TokenSecret == "" {
		c.TokenSecret = getenv(EnvJWTSecret)
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv(EnvDatabaseURL)
	}
}

// TTL parses TokenTTL.
func (c *Config) TTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return 0, oops.Code("CONFIG_INVALID").With("token_ttl", c.TokenTTL).Wrap(err)
	}
	return d, nil
}

func positiveDuration(value any) error {
	s, _ := value.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 30m or 1h")
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func (c *Config) requireDatabaseURL(value any) error {
	if s, _ := value.(string); c.Storage == StoragePostgres && strings.TrimSpace(s) == "" {
		return errors.New("is required for postgres storage (set $DATABASE_URL)")
	}
	return nil
}

// Validate checks everything serve needs.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.LogFormat, validation.Required, validation.In("json", "text")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Storage, validation.Required, validation.In(StoragePostgres, StorageMemory)),
		validation.Field(&c.DatabaseURL, validation.By(c.requireDatabaseURL)),
		validation.Field(&c.TokenSecret, validation.Required.Error("is required (set $FEEDLINE_TOKEN_SECRET)")),
		validation.Field(&c.TokenTTL, validation.Required, validation.By(positiveDuration)),
		validation.Field(&c.ImageDir, validation.Required),
		validation.Field(&c.PageSize, validation.Min(1)),
		validation.Field(&c.EventBuffer, validation.Min(1)),
	)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return nil
}
