package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all strata configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Memory   MemoryConfig   `mapstructure:"memory"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// MemoryConfig mirrors the engine configuration. CompressionRatio and
// RetentionThreshold are reporting values; CleanupInterval is the period
// of the background compaction cycle.
type MemoryConfig struct {
	CompressionRatio   float64       `mapstructure:"compression_ratio"`
	RetentionThreshold float64       `mapstructure:"retention_threshold"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37710,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Memory: MemoryConfig{
			CompressionRatio:   0.7,
			RetentionThreshold: 0.8,
			CleanupInterval:    5 * time.Minute,
		},
	}
}

// Load reads configuration from the given file (or, when path is empty,
// from strata.toml in the working directory or ~/.strata), applies
// STRATA_* environment overrides, and falls back to defaults for
// anything unset. A missing config file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("server.bind", def.Server.Bind)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("memory.compression_ratio", def.Memory.CompressionRatio)
	v.SetDefault("memory.retention_threshold", def.Memory.RetentionThreshold)
	v.SetDefault("memory.cleanup_interval", def.Memory.CleanupInterval)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("strata")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.strata")
	}

	v.SetEnvPrefix("STRATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
