// Package config provides environment-variable-first configuration loading
// with optional YAML file and .env fallbacks for the mail connector.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/mail-connector/pkg/client"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`
	Cache      CacheConfig      `yaml:"cache"`
	Pagination PaginationConfig `yaml:"pagination"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// APIConfig holds provider API settings.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// RedisConfig holds the optional response cache backend. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	TTL   time.Duration `yaml:"ttl"`
	Paths []string      `yaml:"paths"`
}

// PaginationConfig holds list fetching settings.
type PaginationConfig struct {
	MaxPages int `yaml:"max_pages"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is read first if present; variables
// already set in the environment win over it.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads a YAML file as the base layer, then overrides with
// environment variables.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings needed to talk to the provider.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.APIKey) == "" {
		return errors.New("api key is required (MAIL_API_KEY)")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api timeout must be >= 0 (got %s)", c.API.Timeout)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must be >= 0 (got %s)", c.Cache.TTL)
	}
	if c.Pagination.MaxPages < 0 {
		return fmt.Errorf("pagination max pages must be >= 0 (got %d)", c.Pagination.MaxPages)
	}
	return nil
}

// CacheEnabled reports whether a Redis address and a positive TTL are set.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != "" && c.Cache.TTL > 0
}

func (c *Config) applyDefaults() {
	defaults := client.DefaultConfig("")

	c.API.BaseURL = defaults.BaseURL
	c.API.Timeout = defaults.Timeout
	c.API.UserAgent = defaults.UserAgent
	c.Cache.TTL = 5 * time.Minute
	c.Cache.Paths = defaults.CacheablePaths
	c.Server.Listen = ":8080"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with non-empty environment variables.
func (c *Config) applyEnvVars() error {
	if v := os.Getenv("MAIL_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("MAIL_API_KEY"); v != "" {
		c.API.APIKey = v
	}
	if v := os.Getenv("MAIL_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MAIL_API_TIMEOUT %q: %w", v, err)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv("MAIL_USER_AGENT"); v != "" {
		c.API.UserAgent = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.Redis.DB = db
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		c.Cache.TTL = d
	}

	if v := os.Getenv("PAGINATION_MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PAGINATION_MAX_PAGES %q: %w", v, err)
		}
		c.Pagination.MaxPages = n
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.Listen = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_PRETTY %q: %w", v, err)
		}
		c.Logging.Pretty = pretty
	}
	return nil
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
