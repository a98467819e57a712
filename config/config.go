package config

import "time"

// Config is the complete service configuration.
type Config struct {
	// Server holds the HTTP listener settings.
	Server ServerConfig `yaml:"server"`
	// Engine holds execution guard defaults.
	Engine EngineConfig `yaml:"engine"`
	// Checkpoint selects and configures the checkpoint backend.
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	// Log holds logging settings.
	Log LogConfig `yaml:"log"`
	// Telemetry holds tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EngineConfig holds default execution guards applied at compile time.
type EngineConfig struct {
	// StepLimit bounds supersteps per run; feedback edges rely on it.
	StepLimit int `yaml:"step_limit"`
	// RunTimeout is the overall per-run deadline. Zero disables it.
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// CheckpointConfig selects the checkpoint store backend.
type CheckpointConfig struct {
	// Backend is "memory" or "redis".
	Backend string `yaml:"backend"`
	// Redis applies when Backend is "redis".
	Redis RedisConfig `yaml:"redis"`
	// TTL expires checkpoints in durable backends. Zero keeps them.
	TTL time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
}

// TelemetryConfig holds tracing settings.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Engine: EngineConfig{
			StepLimit:  100,
			RunTimeout: 5 * time.Minute,
		},
		Checkpoint: CheckpointConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			ServiceName:  "eigenflow",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}
