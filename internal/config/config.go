// Package config assembles process configuration from the environment and an
// optional readiness.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/report"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/utilities"
)

// DefaultPath is read when READINESS_CONFIG is unset and the file exists.
const DefaultPath = "readiness.yaml"

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Config struct {
	Database database.Config  `yaml:"database"`
	Log      utilities.Config `yaml:"log"`
	HTTP     HTTPConfig       `yaml:"http"`
	Report   report.S3Config  `yaml:"report"`
}

// FromEnv returns the configuration described by environment variables alone.
func FromEnv() *Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	return &Config{
		Database: database.ConfigFromEnv(),
		Log:      utilities.ConfigFromEnv(),
		HTTP:     HTTPConfig{Addr: addr, ShutdownTimeout: 5 * time.Second},
		Report:   report.S3ConfigFromEnv(),
	}
}

// Path returns READINESS_CONFIG, or DefaultPath when that file exists, or "".
func Path() string {
	if p := os.Getenv("READINESS_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// Load layers the YAML file at path over FromEnv and validates the result. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := FromEnv()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case database.DriverSQLite, database.DriverPostgres:
	case "":
		return errors.New("database.driver is required")
	default:
		return fmt.Errorf("unsupported database.driver %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if cfg.Database.MaxConns <= 0 {
		return errors.New("database.max_conns must be positive")
	}
	if cfg.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Report.Enabled() && cfg.Report.Region == "" {
		return errors.New("report.region is required when report.bucket is set")
	}
	return nil
}
