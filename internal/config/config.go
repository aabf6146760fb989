// Package config loads pokegrid configuration from defaults, an optional
// YAML file, and POKEGRID_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sternrassler/pokegrid/pkg/cache"
	"github.com/Sternrassler/pokegrid/pkg/logging"
	"github.com/Sternrassler/pokegrid/pkg/pagination"
	"github.com/Sternrassler/pokegrid/pkg/pokeapi"
	"github.com/Sternrassler/pokegrid/pkg/visibility"
)

// EnvPrefix prefixes every environment override, e.g. POKEGRID_SERVER_ADDR.
const EnvPrefix = "POKEGRID"

// CacheBackend selects the store behind the upstream cache.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
	CacheNone   CacheBackend = "none"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Scroll   ScrollConfig   `mapstructure:"scroll"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig configures the HTTP server and the clients that call it.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`             // listen address for serve
	BaseURL         string        `mapstructure:"base_url"`         // origin used by browse/export
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // graceful shutdown budget
}

// UpstreamConfig configures the PokeAPI client.
type UpstreamConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CachePolicy string        `mapstructure:"cache_policy"` // force-cache or default
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Backend    CacheBackend  `mapstructure:"backend"`
	RedisAddr  string        `mapstructure:"redis_addr"`
	MemorySize int           `mapstructure:"memory_size"` // max entries in the memory backend
	Retention  time.Duration `mapstructure:"retention"`
}

// ScrollConfig configures the incremental list hosts.
type ScrollConfig struct {
	InitialPage          int    `mapstructure:"initial_page"`
	PageSize             int    `mapstructure:"page_size"` // must match the upstream listing length
	RootMargin           string `mapstructure:"root_margin"`
	UnobserveWhenVisible bool   `mapstructure:"unobserve_when_visible"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			BaseURL:         "http://localhost:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:     pokeapi.DefaultBaseURL,
			UserAgent:   "pokegrid/0.1.0",
			Timeout:     30 * time.Second,
			CachePolicy: "force-cache",
		},
		Cache: CacheConfig{
			Backend:    CacheMemory,
			RedisAddr:  "localhost:6379",
			MemorySize: 1024,
			Retention:  24 * time.Hour,
		},
		Scroll: ScrollConfig{
			InitialPage:          1,
			PageSize:             20,
			RootMargin:           "40px",
			UnobserveWhenVisible: true,
		},
		Logging: LoggingConfig{
			Level: string(logging.LevelInfo),
		},
	}
}

// Load reads configuration. path may be empty, in which case pokegrid.yaml
// is looked up in the working directory and then the user config directory,
// and its absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pokegrid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfigDir returns the per-user config directory for the current OS
func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "pokegrid")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "pokegrid")
	}
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("upstream.base_url", d.Upstream.BaseURL)
	v.SetDefault("upstream.user_agent", d.Upstream.UserAgent)
	v.SetDefault("upstream.timeout", d.Upstream.Timeout)
	v.SetDefault("upstream.cache_policy", d.Upstream.CachePolicy)

	v.SetDefault("cache.backend", string(d.Cache.Backend))
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.memory_size", d.Cache.MemorySize)
	v.SetDefault("cache.retention", d.Cache.Retention)

	v.SetDefault("scroll.initial_page", d.Scroll.InitialPage)
	v.SetDefault("scroll.page_size", d.Scroll.PageSize)
	v.SetDefault("scroll.root_margin", d.Scroll.RootMargin)
	v.SetDefault("scroll.unobserve_when_visible", d.Scroll.UnobserveWhenVisible)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
	v.SetDefault("logging.file", d.Logging.File)
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheMemory && c.Cache.MemorySize <= 0 {
		return fmt.Errorf("cache.memory_size must be positive")
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	if _, err := pokeapi.ParseCachePolicy(c.Upstream.CachePolicy); err != nil {
		return fmt.Errorf("upstream.cache_policy: %w", err)
	}
	if c.Scroll.InitialPage < 1 {
		return fmt.Errorf("scroll.initial_page must be at least 1")
	}
	if c.Scroll.PageSize != pagination.DefaultPageSize {
		return fmt.Errorf("scroll.page_size must be %d, the upstream listing length; got %d",
			pagination.DefaultPageSize, c.Scroll.PageSize)
	}
	if _, err := visibility.ParseMargin(c.Scroll.RootMargin); err != nil {
		return fmt.Errorf("scroll.root_margin: %w", err)
	}
	return nil
}

// LoggingConfig converts the logging section to a logging.Config.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  logging.LogLevel(c.Logging.Level),
		Pretty: c.Logging.Pretty,
		File:   c.Logging.File,
	}
}

// UpstreamClientConfig converts the upstream section to a pokeapi.Config. The cache
// manager is wired by the caller.
func (c *Config) UpstreamClientConfig() pokeapi.Config {
	policy, _ := pokeapi.ParseCachePolicy(c.Upstream.CachePolicy)
	return pokeapi.Config{
		BaseURL:   c.Upstream.BaseURL,
		UserAgent: c.Upstream.UserAgent,
		Timeout:   c.Upstream.Timeout,
		Policy:    policy,
	}
}

// Visibility converts the scroll section to a visibility.Config.
func (c *Config) Visibility() visibility.Config {
	margin, err := visibility.ParseMargin(c.Scroll.RootMargin)
	if err != nil {
		margin = visibility.DefaultConfig().RootMargin
	}
	return visibility.Config{
		UnobserveWhenVisible: c.Scroll.UnobserveWhenVisible,
		RootMargin:           margin,
	}
}

// Retention returns the cache retention, falling back to the default TTL.
func (c *Config) Retention() time.Duration {
	if c.Cache.Retention <= 0 {
		return cache.DefaultTTL
	}
	return c.Cache.Retention
}
