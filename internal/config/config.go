// Package config loads OptiFolio settings from YAML files, with
// defaults for every key and OPTIFOLIO_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full application configuration tree.
type Config struct {
	Fetch     FetchConfig     `mapstructure:"fetch"     yaml:"fetch"`
	Data      DataConfig      `mapstructure:"data"      yaml:"data"`
	Portfolio PortfolioConfig `mapstructure:"portfolio" yaml:"portfolio"`
	Optimizer OptimizerConfig `mapstructure:"optimizer" yaml:"optimizer"`
	Chart     ChartConfig     `mapstructure:"chart"     yaml:"chart"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// FetchConfig holds market data fetching settings.
type FetchConfig struct {
	RateLimit     int    `mapstructure:"rate_limit"      yaml:"rate_limit"`      // requests per window
	RateWindowSec int    `mapstructure:"rate_window_sec" yaml:"rate_window_sec"` // window length in seconds
	CacheTTLSec   int    `mapstructure:"cache_ttl_sec"   yaml:"cache_ttl_sec"`   // in-memory cache TTL
	HTTPCachePath string `mapstructure:"http_cache_path" yaml:"http_cache_path"` // persistent cache database
	HTTPCacheTTL  string `mapstructure:"http_cache_ttl"  yaml:"http_cache_ttl"`  // e.g., "24h"
	Concurrency   int    `mapstructure:"concurrency"     yaml:"concurrency"`     // parallel symbol fetches
}

// DataConfig holds local dataset persistence settings.
type DataConfig struct {
	SaveDir   string `mapstructure:"save_dir"  yaml:"save_dir"`
	Separator string `mapstructure:"separator" yaml:"separator"` // CSV column separator
}

// PortfolioConfig holds portfolio statistics settings.
type PortfolioConfig struct {
	RiskFreeRate    float64 `mapstructure:"risk_free_rate"   yaml:"risk_free_rate"`
	TradingDays     int     `mapstructure:"trading_days"     yaml:"trading_days"`
	ConfidenceLevel float64 `mapstructure:"confidence_level" yaml:"confidence_level"`
	PriceType       string  `mapstructure:"price_type"       yaml:"price_type"` // "open", "high", "low", "close"
}

// OptimizerConfig holds weight optimization settings.
type OptimizerConfig struct {
	Method        string  `mapstructure:"method"         yaml:"method"` // e.g., "nelder-mead"
	MaxIterations int     `mapstructure:"max_iterations" yaml:"max_iterations"`
	Distribution  string  `mapstructure:"distribution"   yaml:"distribution"` // "log-normal", "normal", "uniform"
	Seed          uint64  `mapstructure:"seed"           yaml:"seed"`         // 0 = non-deterministic
	PenaltyWeight float64 `mapstructure:"penalty_weight" yaml:"penalty_weight"`
}

// ChartConfig holds chart rendering settings.
type ChartConfig struct {
	Theme  string `mapstructure:"theme"  yaml:"theme"` // "light" or "dark"
	Width  int    `mapstructure:"width"  yaml:"width"`
	Height int    `mapstructure:"height" yaml:"height"`
}

// LoggingConfig controls log verbosity and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration. A config.yaml is looked for under
// ./config, ~/.optifolio and /etc/optifolio, in that order; a missing
// file is fine, defaults and environment variables still apply.
// OPTIFOLIO_<SECTION>_<KEY> overrides any file value, e.g.
// OPTIFOLIO_LOGGING_LEVEL=debug.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".optifolio"))
	v.AddConfigPath("/etc/optifolio")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFromFile reads configuration from one explicit file, which must
// exist. Environment overrides still apply on top.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return unmarshal(v)
}

// newViper builds a viper instance with defaults and the OPTIFOLIO env
// binding already applied.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("OPTIFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults registers a default for every key so an empty config
// file (or none at all) still yields a usable Config.
func setDefaults(v *viper.Viper) {
	root := filepath.Join(homeDir(), ".optifolio")

	// Conservative fetch rate: 2 requests/second keeps free-tier APIs happy.
	v.SetDefault("fetch.rate_limit", 2)
	v.SetDefault("fetch.rate_window_sec", 1)
	v.SetDefault("fetch.cache_ttl_sec", 900) // 15 minutes
	v.SetDefault("fetch.http_cache_path", filepath.Join(root, "http_cache.db"))
	v.SetDefault("fetch.http_cache_ttl", "24h")
	v.SetDefault("fetch.concurrency", 5)

	// Data defaults
	v.SetDefault("data.save_dir", filepath.Join(root, "data"))
	v.SetDefault("data.separator", ";")

	// Portfolio defaults
	v.SetDefault("portfolio.risk_free_rate", 0.005)
	v.SetDefault("portfolio.trading_days", 252)
	v.SetDefault("portfolio.confidence_level", 0.95)
	v.SetDefault("portfolio.price_type", "close")

	// Optimizer defaults
	v.SetDefault("optimizer.method", "nelder-mead")
	v.SetDefault("optimizer.max_iterations", 1000)
	v.SetDefault("optimizer.distribution", "log-normal")
	v.SetDefault("optimizer.seed", 0)
	v.SetDefault("optimizer.penalty_weight", 1000.0)

	// Chart defaults
	v.SetDefault("chart.theme", "light")
	v.SetDefault("chart.width", 1200)
	v.SetDefault("chart.height", 600)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads path keys from environment variables.
// These are the values most often set outside a config file.
func overrideFromEnv(cfg *Config) {
	if dir := os.Getenv("OPTIFOLIO_DATA_DIR"); dir != "" {
		cfg.Data.SaveDir = dir
	}
	if path := os.Getenv("OPTIFOLIO_HTTP_CACHE"); path != "" {
		cfg.Fetch.HTTPCachePath = path
	}
}

// homeDir falls back to the working directory when the home directory
// cannot be resolved, e.g. in a minimal container.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
