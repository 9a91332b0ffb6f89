// Package config provides configuration management for the kong tool.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Tools   ToolsConfig   `mapstructure:"tools"`
	Oracle  OracleConfig  `mapstructure:"oracle"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Log     LogConfig     `mapstructure:"log"`
}

// ToolsConfig holds the paths of the external collaborators.
type ToolsConfig struct {
	Reduce    string `mapstructure:"reduce"`
	Shrink    string `mapstructure:"shrink"`
	CaesarBDD string `mapstructure:"caesar_bdd"`
	Sift      string `mapstructure:"sift"`
}

// OracleConfig holds the limits passed through to the base oracle.
type OracleConfig struct {
	Timeout    int `mapstructure:"timeout"`    // in seconds, 0 means unset
	Iterations int `mapstructure:"iterations"` // 0 means unset
}

// CacheConfig holds the result cache database configuration.
// The cache is disabled by default; the default run persists nothing.
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // sqlite, postgres or mysql
	Path     string `mapstructure:"path"` // for sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// ArchiveConfig holds the result archive configuration.
// The archive is disabled by default.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"` // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"` // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Determine config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/kong")
	}

	// Read config file; a missing file means defaults.
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow environment variables to override config
	v.SetEnvPrefix("KONG")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Tool defaults: resolved from PATH
	v.SetDefault("tools.reduce", "reduce")
	v.SetDefault("tools.shrink", "shrink")
	v.SetDefault("tools.caesar_bdd", "caesar.bdd")
	v.SetDefault("tools.sift", "sift")

	// Oracle defaults: no limits
	v.SetDefault("oracle.timeout", 0)
	v.SetDefault("oracle.iterations", 0)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.type", "sqlite")
	v.SetDefault("cache.path", "kong-cache.db")
	v.SetDefault("cache.host", "localhost")
	v.SetDefault("cache.port", 5432)
	v.SetDefault("cache.max_conns", 4)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.type", "local")
	v.SetDefault("archive.local_path", "./results")

	// Log defaults
	v.SetDefault("log.level", "info")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Cache.Enabled {
		switch c.Cache.Type {
		case "sqlite":
			if c.Cache.Path == "" {
				return fmt.Errorf("cache path is required for sqlite")
			}
		case "postgres", "mysql":
			if c.Cache.Host == "" {
				return fmt.Errorf("cache host is required")
			}
		default:
			return fmt.Errorf("unsupported cache type: %s", c.Cache.Type)
		}
	}

	if c.Archive.Enabled {
		if c.Archive.Type != "cos" && c.Archive.Type != "local" {
			return fmt.Errorf("unsupported archive type: %s", c.Archive.Type)
		}
	}

	if c.Oracle.Timeout < 0 {
		return fmt.Errorf("oracle timeout must be non-negative")
	}
	if c.Oracle.Iterations < 0 {
		return fmt.Errorf("oracle iterations must be non-negative")
	}

	return nil
}
