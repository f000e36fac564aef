package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/sethvargo/go-password/password"
)

// DefaultConfigPaths lists where config files are searched, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/movieverse/config.yaml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Auth     AuthConfig     `koanf:"auth"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

type TMDBConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	APIKey  string `koanf:"api_key" validate:"required"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type CacheConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type AuthConfig struct {
	// Secret signs session tokens. Generated at startup when left empty,
	// which means sessions do not survive a restart.
	Secret     string        `koanf:"secret"`
	SessionTTL time.Duration `koanf:"session_ttl"`
}

type LoggingConfig struct {
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8085,
			Timeout: 30 * time.Second,
		},
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
			APIKey:  "",
		},
		Database: DatabaseConfig{
			Path: "data/movieverse.db",
		},
		Cache: CacheConfig{
			Path: "data/device-cache.json",
		},
		Auth: AuthConfig{
			Secret:     "",
			SessionTTL: 30 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			File:       "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration from layered sources, lowest priority first:
// built-in defaults, an optional YAML file, then MOVIEVERSE_* environment
// variables with double underscores as section separators
// (MOVIEVERSE_TMDB__API_KEY -> tmdb.api_key).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("MOVIEVERSE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "MOVIEVERSE_")), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if cfg.Auth.Secret == "" {
		secret, err := password.Generate(48, 12, 0, false, true)
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.Auth.Secret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
