// Package config loads service settings and simulation job files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. VALUATION_SERVER_ADDR.
const EnvPrefix = "VALUATION"

// Config is the service configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// PostgresConfig enables the run store when DSN is set.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ClickHouseConfig enables the outcome store when DSN is set.
type ClickHouseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig enables the result cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PoolSize int           `mapstructure:"pool_size"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// SimulationConfig holds defaults applied to jobs that leave them unset.
type SimulationConfig struct {
	Workers        int     `mapstructure:"workers"`
	MaxFailureRate float64 `mapstructure:"max_failure_rate"`
	ProgressBatch  int     `mapstructure:"progress_batch"`
	KeepOutcomes   bool    `mapstructure:"keep_outcomes"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("clickhouse.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.ttl", "24h")
	v.SetDefault("simulation.workers", 1)
	v.SetDefault("simulation.max_failure_rate", 0.5)
	v.SetDefault("simulation.progress_batch", 256)
	v.SetDefault("simulation.keep_outcomes", false)
	v.SetDefault("metrics.namespace", "valuation_lab")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and .env, then unmarshals v.
// An empty configFile searches ./config and the working directory for valuation.yaml.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("valuation")
		v.SetConfigType("yaml")
		v.AddConfigPath("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("simulation.workers must be >= 1, got %d", c.Simulation.Workers)
	}
	if c.Simulation.MaxFailureRate < 0 || c.Simulation.MaxFailureRate > 1 {
		return fmt.Errorf("simulation.max_failure_rate must be in [0,1], got %v", c.Simulation.MaxFailureRate)
	}
	if c.Simulation.ProgressBatch < 1 {
		return fmt.Errorf("simulation.progress_batch must be >= 1, got %d", c.Simulation.ProgressBatch)
	}
	return nil
}
