// Package config loads the server configuration from an optional YAML file
// with DECISIONSIM_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DECISIONSIM_"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Content  ContentConfig  `yaml:"content" envPrefix:"CONTENT_"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Sessions SessionsConfig `yaml:"sessions" envPrefix:"SESSIONS_"`
	MQTT     MQTTConfig     `yaml:"mqtt" envPrefix:"MQTT_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	TLSCert         string        `yaml:"tls_cert" env:"TLS_CERT"`
	TLSKey          string        `yaml:"tls_key" env:"TLS_KEY"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// TLSEnabled returns true if both certificate and key are configured.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCert != "" && s.TLSKey != ""
}

type ContentConfig struct {
	Dir            string `yaml:"dir" env:"DIR"`
	IncludeBuiltin bool   `yaml:"include_builtin" env:"INCLUDE_BUILTIN"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path" env:"PATH"`
	DSN    string `yaml:"dsn" env:"DSN"`
}

type SessionsConfig struct {
	MaxDecisions int  `yaml:"max_decisions" env:"MAX_DECISIONS"`
	Restore      bool `yaml:"restore" env:"RESTORE"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	URL         string `yaml:"url" env:"URL"`
	ClientID    string `yaml:"client_id" env:"CLIENT_ID"`
	TopicPrefix string `yaml:"topic_prefix" env:"TOPIC_PREFIX"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Content: ContentConfig{IncludeBuiltin: true},
		Storage: StorageConfig{Driver: DriverMemory},
		Sessions: SessionsConfig{
			MaxDecisions: 50,
			Restore:      true,
		},
		MQTT: MQTTConfig{
			URL:         "tcp://localhost:1883",
			ClientID:    "decisionsim",
			TopicPrefix: "decisionsim",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if cfg.Version != 1 {
			return nil, fmt.Errorf("unsupported config version: %d", cfg.Version)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		errs = append(errs, errors.New("server.tls_cert and server.tls_key must be set together"))
	}

	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	case DriverFile, DriverSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver: %q", c.Storage.Driver))
	}

	if c.Sessions.MaxDecisions < 0 {
		errs = append(errs, fmt.Errorf("sessions.max_decisions must not be negative"))
	}
	if !c.Content.IncludeBuiltin && c.Content.Dir == "" {
		errs = append(errs, errors.New("content.dir is required when builtin scenarios are disabled"))
	}
	if c.MQTT.Enabled && c.MQTT.URL == "" {
		errs = append(errs, errors.New("mqtt.url is required when mqtt is enabled"))
	}

	return errors.Join(errs...)
}
