// Package config handles configuration loading for tierscreen.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/seenimoa/tierscreen/internal/screener"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "TIERSCREEN"

// Config represents the complete application configuration.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"  yaml:"source"`
	Filter  FilterConfig  `mapstructure:"filter"  yaml:"filter"`
	Tiers   TiersConfig   `mapstructure:"tiers"   yaml:"tiers"`
	Export  ExportConfig  `mapstructure:"export"  yaml:"export"`
	Cache   CacheConfig   `mapstructure:"cache"   yaml:"cache"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SourceConfig holds the market data API settings.
type SourceConfig struct {
	BaseURL      string  `mapstructure:"base_url"       yaml:"base_url"`
	APIKey       string  `mapstructure:"api_key"        yaml:"api_key"`
	PageLimit    int     `mapstructure:"page_limit"     yaml:"page_limit"`
	MaxPages     int     `mapstructure:"max_pages"      yaml:"max_pages"`
	TimeoutSec   int     `mapstructure:"timeout_sec"    yaml:"timeout_sec"`
	RateLimitRPS float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"` // <= 0 disables limiting
	RateBurst    int     `mapstructure:"rate_burst"     yaml:"rate_burst"`
}

// Timeout returns the HTTP client timeout.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// FilterConfig holds the screening thresholds. Amounts are USD strings so
// they survive YAML and env round-trips without float rounding.
type FilterConfig struct {
	MinMarketCap string `mapstructure:"min_market_cap" yaml:"min_market_cap"`
	MinVolume24h string `mapstructure:"min_volume_24h" yaml:"min_volume_24h"`
	TopN         int    `mapstructure:"top_n"          yaml:"top_n"`
}

// Thresholds parses the configured minimums.
func (f FilterConfig) Thresholds() (minMarketCap, minVolume decimal.Decimal, err error) {
	minMarketCap, err = decimal.NewFromString(strings.TrimSpace(f.MinMarketCap))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("filter.min_market_cap %q: %w", f.MinMarketCap, err)
	}
	minVolume, err = decimal.NewFromString(strings.TrimSpace(f.MinVolume24h))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("filter.min_volume_24h %q: %w", f.MinVolume24h, err)
	}
	return minMarketCap, minVolume, nil
}

// TiersConfig overrides the built-in exchange tier lists.
// Empty lists keep the defaults.
type TiersConfig struct {
	Tier1 []string `mapstructure:"tier1" yaml:"tier1"`
	Tier2 []string `mapstructure:"tier2" yaml:"tier2"`
}

// ExportConfig holds result file settings.
type ExportConfig struct {
	Path   string `mapstructure:"path"   yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"` // "xlsx", "csv", "json", "yaml"; empty infers from path
	Sheet  string `mapstructure:"sheet"  yaml:"sheet"`
}

// CacheConfig holds the page cache settings.
type CacheConfig struct {
	Backend   string `mapstructure:"backend"    yaml:"backend"` // "memory", "redis", "none"
	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"   yaml:"redis_db"`
	TTLSec    int    `mapstructure:"ttl_sec"    yaml:"ttl_sec"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// MetricsConfig holds metrics output settings.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"` // node_exporter textfile path; empty disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.tierscreen/config.yaml (home directory)
//  3. /etc/tierscreen/config.yaml (system)
//
// Environment variables override config file values.
// Format: TIERSCREEN_<SECTION>_<KEY>, e.g., TIERSCREEN_SOURCE_API_KEY
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".tierscreen"))
	v.AddConfigPath("/etc/tierscreen")

	// Config file is optional.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.base_url", "https://api.coincap.io/v2")
	v.SetDefault("source.api_key", "")
	v.SetDefault("source.page_limit", 2000)
	v.SetDefault("source.max_pages", 50)
	v.SetDefault("source.timeout_sec", 30)
	v.SetDefault("source.rate_limit_rps", 2.0)
	v.SetDefault("source.rate_burst", 1)

	// Filter defaults
	criteria := screener.DefaultCriteria()
	v.SetDefault("filter.min_market_cap", criteria.MinMarketCap.String())
	v.SetDefault("filter.min_volume_24h", criteria.MinVolume24h.String())
	v.SetDefault("filter.top_n", screener.DefaultReportSize)

	// Tier lists: empty means built-in
	v.SetDefault("tiers.tier1", []string{})
	v.SetDefault("tiers.tier2", []string{})

	// Export defaults
	v.SetDefault("export.path", "filtered_coins.xlsx")
	v.SetDefault("export.format", "")
	v.SetDefault("export.sheet", "Coins")

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl_sec", 300) // 5 minutes

	v.SetDefault("metrics.textfile", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvPrefix + "_SOURCE_API_KEY"); key != "" {
		cfg.Source.APIKey = key
	} else if key := os.Getenv("COINCAP_API_KEY"); key != "" && cfg.Source.APIKey == "" {
		cfg.Source.APIKey = key
	}
}

// Validate checks values that would otherwise fail late in a run.
func (c *Config) Validate() error {
	if _, _, err := c.Filter.Thresholds(); err != nil {
		return err
	}
	if c.Filter.TopN < 0 {
		return fmt.Errorf("filter.top_n must not be negative, got %d", c.Filter.TopN)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend must be memory, redis or none, got %q", c.Cache.Backend)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
