// Package config assembles the server configuration from an optional
// YAML file overlaid with environment variables. Environment variables
// always win, so container deployments can override a baked-in file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted by the server.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// Config is the full server configuration.
type Config struct {
	Tourism TourismConfig `yaml:"tourism"`
	Weather WeatherConfig `yaml:"weather"`
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
}

// TourismConfig configures the tourism API client.
type TourismConfig struct {
	APIKey           string        `yaml:"api_key"`
	DefaultLanguage  string        `yaml:"default_language"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	RateLimitCalls   int           `yaml:"rate_limit_calls"`
	RateLimitPeriod  time.Duration `yaml:"rate_limit_period"`
	ConcurrencyLimit int           `yaml:"concurrency_limit"`
}

// WeatherConfig configures the weather API client.
type WeatherConfig struct {
	APIKey          string        `yaml:"api_key"`
	RateLimitCalls  int           `yaml:"rate_limit_calls"`
	RateLimitPeriod time.Duration `yaml:"rate_limit_period"`
}

// ServerConfig configures the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	LogLevel  string `yaml:"log_level"`

	// EnabledTools restricts which tools the server registers. Empty
	// means all tools.
	EnabledTools []string `yaml:"enabled_tools"`
}

// RedisConfig selects the optional Redis cache backend. An empty Addr
// keeps the in-memory cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns the configuration used when neither file nor
// environment override a value.
func Default() Config {
	return Config{
		Tourism: TourismConfig{
			DefaultLanguage:  "en",
			CacheTTL:         24 * time.Hour,
			RateLimitCalls:   5,
			RateLimitPeriod:  time.Second,
			ConcurrencyLimit: 10,
		},
		Weather: WeatherConfig{
			RateLimitCalls:  10,
			RateLimitPeriod: time.Second,
		},
		Server: ServerConfig{
			Transport: TransportStdio,
			Host:      "0.0.0.0",
			Port:      8000,
			Path:      "/mcp",
			LogLevel:  "info",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty; missing files are an error), then the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Tourism.APIKey, "KOREA_TOURISM_API_KEY")
	setString(&c.Tourism.DefaultLanguage, "MCP_TOURISM_DEFAULT_LANGUAGE")
	setString(&c.Weather.APIKey, "KOREA_WEATHER_API_KEY")
	setString(&c.Server.Transport, "MCP_TRANSPORT")
	setString(&c.Server.Host, "MCP_HOST")
	setString(&c.Server.Path, "MCP_PATH")
	setString(&c.Server.LogLevel, "MCP_LOG_LEVEL")
	setString(&c.Redis.Addr, "MCP_REDIS_ADDR")
	setString(&c.Redis.Password, "MCP_REDIS_PASSWORD")

	if v, ok := os.LookupEnv("MCP_ENABLED_TOOLS"); ok && v != "" {
		c.Server.EnabledTools = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Server.EnabledTools = append(c.Server.EnabledTools, name)
			}
		}
	}

	if err := setSeconds(&c.Tourism.CacheTTL, "MCP_TOURISM_CACHE_TTL"); err != nil {
		return err
	}
	if err := setInt(&c.Tourism.RateLimitCalls, "MCP_TOURISM_RATE_LIMIT_CALLS"); err != nil {
		return err
	}
	if err := setSeconds(&c.Tourism.RateLimitPeriod, "MCP_TOURISM_RATE_LIMIT_PERIOD"); err != nil {
		return err
	}
	if err := setInt(&c.Tourism.ConcurrencyLimit, "MCP_TOURISM_CONCURRENCY_LIMIT"); err != nil {
		return err
	}
	if err := setInt(&c.Weather.RateLimitCalls, "MCP_WEATHER_RATE_LIMIT_CALLS"); err != nil {
		return err
	}
	if err := setSeconds(&c.Weather.RateLimitPeriod, "MCP_WEATHER_RATE_LIMIT_PERIOD"); err != nil {
		return err
	}
	if err := setInt(&c.Server.Port, "MCP_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Redis.DB, "MCP_REDIS_DB"); err != nil {
		return err
	}
	return nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportSSE, TransportStreamableHTTP:
	default:
		return fmt.Errorf("config: unknown transport %q", c.Server.Transport)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Server.Port)
	}
	if c.Tourism.RateLimitCalls <= 0 {
		return fmt.Errorf("config: rate limit calls must be positive")
	}
	if c.Tourism.RateLimitPeriod <= 0 {
		return fmt.Errorf("config: rate limit period must be positive")
	}
	if c.Weather.RateLimitCalls <= 0 {
		return fmt.Errorf("config: weather rate limit calls must be positive")
	}
	if c.Weather.RateLimitPeriod <= 0 {
		return fmt.Errorf("config: weather rate limit period must be positive")
	}
	if c.Tourism.CacheTTL <= 0 {
		return fmt.Errorf("config: cache TTL must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s=%q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func setSeconds(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s=%q is not a number of seconds", key, v)
	}
	*dst = time.Duration(n) * time.Second
	return nil
}
