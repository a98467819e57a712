// =============================================================================
// Eigenflow configuration loader
// =============================================================================
// Unified configuration loading: defaults, then YAML file, then
// environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("EIGENFLOW").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment variables.
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration with layered precedence.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with no config file and the EIGENFLOW env
// prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "EIGENFLOW"}
}

// WithConfigPath sets the YAML file to load. Missing file is an error;
// leave unset to skip the file layer.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the final configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.configPath, err)
		}
	}

	l.applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides individual fields from environment variables.
func (l *Loader) applyEnv(cfg *Config) {
	l.envString("SERVER_ADDR", &cfg.Server.Addr)
	l.envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	l.envInt("ENGINE_STEP_LIMIT", &cfg.Engine.StepLimit)
	l.envDuration("ENGINE_RUN_TIMEOUT", &cfg.Engine.RunTimeout)
	l.envString("CHECKPOINT_BACKEND", &cfg.Checkpoint.Backend)
	l.envDuration("CHECKPOINT_TTL", &cfg.Checkpoint.TTL)
	l.envString("REDIS_ADDR", &cfg.Checkpoint.Redis.Addr)
	l.envString("REDIS_PASSWORD", &cfg.Checkpoint.Redis.Password)
	l.envInt("REDIS_DB", &cfg.Checkpoint.Redis.DB)
	l.envString("LOG_LEVEL", &cfg.Log.Level)
	l.envString("LOG_FORMAT", &cfg.Log.Format)
	l.envBool("TELEMETRY_ENABLED", &cfg.Telemetry.Enabled)
	l.envString("TELEMETRY_SERVICE_NAME", &cfg.Telemetry.ServiceName)
	l.envString("TELEMETRY_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
}

func (l *Loader) lookup(key string) (string, bool) {
	return os.LookupEnv(l.envPrefix + "_" + key)
}

func (l *Loader) envString(key string, target *string) {
	if v, ok := l.lookup(key); ok {
		*target = v
	}
}

func (l *Loader) envInt(key string, target *int) {
	if v, ok := l.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func (l *Loader) envBool(key string, target *bool) {
	if v, ok := l.lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func (l *Loader) envDuration(key string, target *time.Duration) {
	if v, ok := l.lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}

func (c *Config) validate() error {
	if c.Engine.StepLimit <= 0 {
		return fmt.Errorf("engine.step_limit must be positive, got %d", c.Engine.StepLimit)
	}
	switch c.Checkpoint.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("checkpoint.backend must be memory or redis, got %q", c.Checkpoint.Backend)
	}
	return nil
}
