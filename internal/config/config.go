// Package config loads simulator run configuration from a YAML file
// and environment variables, following the precedence order viper
// applies: env > file > default. CLI flags are not read here; the
// cmd/pajesim commands apply explicitly set flags on top of the result.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every tunable of a simulator run.
type Config struct {
	Log        LogConfig
	Metrics    MetricsConfig
	Tracing    TracingConfig
	Notify     NotifyConfig
	Simulation SimulationConfig
}

// LogConfig controls the zap logger (SPEC_FULL.md A.1).
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// TracingConfig controls the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// NotifyConfig controls the websocket notification server.
type NotifyConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Addr        string `mapstructure:"addr"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// SimulationConfig controls the simulator itself.
type SimulationConfig struct {
	StopAt       *float64 `mapstructure:"stop_at"`
	IngestRateHz float64  `mapstructure:"ingest_rate_hz"` // 0 disables pacing
}

// Load reads configuration from the environment (prefixed PAJESIM_),
// cfgFile (if non-empty), and built-in defaults, in that precedence order.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PAJESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.addr", ":8090")
	v.SetDefault("notify.jwt_secret", "")
	v.SetDefault("notify.cors_origins", []string{"*"})
	v.SetDefault("simulation.ingest_rate_hz", 0.0)
}

// Validate checks invariants that Unmarshal alone can't enforce.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	if c.Notify.Enabled && c.Notify.JWTSecret == "" {
		return fmt.Errorf("notify.jwt_secret is required when notify.enabled is true")
	}
	if c.Simulation.IngestRateHz < 0 {
		return fmt.Errorf("simulation.ingest_rate_hz must be >= 0")
	}
	return nil
}
