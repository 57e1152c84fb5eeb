// Package config loads approvald configuration from a YAML file and
// APPROVALFLOW_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sicko7947/approvalflow"
	"github.com/sicko7947/approvalflow/engine"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
)

// Config is the root service configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Store     StoreConfig      `yaml:"store"`
	Engine    EngineConfig     `yaml:"engine"`
	Log       LogConfig        `yaml:"log"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Documents []DocumentConfig `yaml:"documents"`
}

// ServerConfig describes the HTTP listener
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects and configures the workflow store
type StoreConfig struct {
	Driver string `yaml:"driver"`

	// DynamoDB
	TableName string `yaml:"table_name"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`

	// Postgres. The DSN itself is read from the DSNEnv variable.
	DSNEnv   string `yaml:"dsn_env"`
	MaxConns int32  `yaml:"max_conns"`
}

// DSN returns the Postgres connection string from the configured variable
func (s StoreConfig) DSN() string {
	if s.DSNEnv == "" {
		return ""
	}
	return os.Getenv(s.DSNEnv)
}

// EngineConfig mirrors engine.EngineConfig in YAML form
type EngineConfig struct {
	DefaultDaysPerStage int           `yaml:"default_days_per_stage"`
	MaxStages           int           `yaml:"max_stages"`
	ConflictRetries     int           `yaml:"conflict_retries"`
	ConflictBackoff     time.Duration `yaml:"conflict_backoff"`
}

// ToEngine converts to the engine's configuration type
func (e EngineConfig) ToEngine() engine.EngineConfig {
	return engine.EngineConfig{
		DefaultDaysPerStage: e.DefaultDaysPerStage,
		MaxStages:           e.MaxStages,
		ConflictRetries:     e.ConflictRetries,
		ConflictBackoff:     e.ConflictBackoff,
	}
}

// LogConfig describes logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig describes the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DocumentConfig seeds the in-process document registry
type DocumentConfig struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Owner string `yaml:"owner"`
}

// Defaults returns a Config with sensible default values
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":3000",
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Driver:    DriverMemory,
			TableName: "approval_workflows",
			DSNEnv:    "APPROVALFLOW_POSTGRES_DSN",
			MaxConns:  10,
		},
		Engine: EngineConfig{
			DefaultDaysPerStage: engine.DefaultEngineConfig.DefaultDaysPerStage,
			MaxStages:           engine.DefaultEngineConfig.MaxStages,
			ConflictRetries:     engine.DefaultEngineConfig.ConflictRetries,
			ConflictBackoff:     engine.DefaultEngineConfig.ConflictBackoff,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads a YAML config file, applies environment overrides and validates
// the result. An empty path loads the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration can start a service
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		errs = append(errs, "server.listen_addr is required")
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout cannot be negative")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverDynamoDB:
		if c.Store.TableName == "" {
			errs = append(errs, "store.table_name is required for dynamodb")
		}
	case DriverPostgres:
		if c.Store.DSNEnv == "" {
			errs = append(errs, "store.dsn_env is required for postgres")
		} else if c.Store.DSN() == "" {
			errs = append(errs, fmt.Sprintf("%s is not set", c.Store.DSNEnv))
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of memory, dynamodb, postgres", c.Store.Driver))
	}

	if c.Engine.DefaultDaysPerStage < 1 {
		errs = append(errs, "engine.default_days_per_stage must be at least 1")
	}
	if c.Engine.MaxStages < 1 || c.Engine.MaxStages > approvalflow.MaxStages {
		errs = append(errs, fmt.Sprintf("engine.max_stages must be between 1 and %d", approvalflow.MaxStages))
	}
	if c.Engine.ConflictRetries < 0 {
		errs = append(errs, "engine.conflict_retries cannot be negative")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid", c.Log.Level))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, "metrics.path must start with /")
	}

	for i, doc := range c.Documents {
		if doc.ID == "" {
			errs = append(errs, fmt.Sprintf("documents[%d].id is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// LogLevel returns the parsed log level, Info when unset
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Document returns the seeded documents in registry form
func (d DocumentConfig) Document() approvalflow.Document {
	return approvalflow.Document{ID: d.ID, Title: d.Title, Owner: d.Owner}
}

// applyEnvOverrides reads APPROVALFLOW_* variables over the file values
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APPROVALFLOW_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("APPROVALFLOW_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("APPROVALFLOW_DYNAMODB_TABLE"); v != "" {
		cfg.Store.TableName = v
	}
	if v := os.Getenv("APPROVALFLOW_DYNAMODB_ENDPOINT"); v != "" {
		cfg.Store.Endpoint = v
	}
	if v := os.Getenv("APPROVALFLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
