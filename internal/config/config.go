// Package config handles configuration loading for stockvalue.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STOCKVALUE_SERVER_PORT.
const EnvPrefix = "STOCKVALUE"

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     yaml:"server"     json:"server"`
	Valuation  ValuationConfig  `mapstructure:"valuation"  yaml:"valuation"  json:"valuation"`
	DataSource DataSourceConfig `mapstructure:"datasource" yaml:"datasource" json:"datasource"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"    json:"logging"`
}

// ServerConfig holds the web front end settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"             yaml:"host"             json:"host"`
	Port            int           `mapstructure:"port"             yaml:"port"             json:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"     yaml:"cors_origins"     json:"cors_origins"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  yaml:"request_timeout"  json:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ValuationConfig holds the defaults applied to every evaluation.
type ValuationConfig struct {
	DefaultStrategy string  `mapstructure:"default_strategy" yaml:"default_strategy" json:"default_strategy"`
	DiscountRate    float64 `mapstructure:"discount_rate"    yaml:"discount_rate"    json:"discount_rate"`
	Years           int     `mapstructure:"years"            yaml:"years"            json:"years"`
	MAWindows       []int   `mapstructure:"ma_windows"       yaml:"ma_windows"       json:"ma_windows"`
	HistoryDays     int     `mapstructure:"history_days"     yaml:"history_days"     json:"history_days"`
}

// DataSourceConfig holds the market-data source settings.
type DataSourceConfig struct {
	YahooBaseURL      string        `mapstructure:"yahoo_base_url"      yaml:"yahoo_base_url"      json:"yahoo_base_url"`
	NewsFeedURL       string        `mapstructure:"news_feed_url"       yaml:"news_feed_url"       json:"news_feed_url"`
	Timeout           time.Duration `mapstructure:"timeout"             yaml:"timeout"             json:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second" json:"requests_per_second"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"           yaml:"cache_ttl"           json:"cache_ttl"`
	HeadlineLimit     int           `mapstructure:"headline_limit"      yaml:"headline_limit"      json:"headline_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads configuration from the default locations and environment.
// Search order: ./config/config.yaml, ~/.stockvalue/config.yaml, /etc/stockvalue/config.yaml.
// A missing file is not an error; defaults and environment still apply.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockvalue"))
	v.AddConfigPath("/etc/stockvalue")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
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

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		// defaults are static; failing to decode them is a programming error
		panic(err)
	}
	return cfg
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
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures sensible default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("valuation.default_strategy", "moderate")
	v.SetDefault("valuation.discount_rate", 0.10)
	v.SetDefault("valuation.years", 10)
	v.SetDefault("valuation.ma_windows", []int{50})
	v.SetDefault("valuation.history_days", 365)

	v.SetDefault("datasource.yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("datasource.news_feed_url", "https://feeds.finance.yahoo.com/rss/2.0/headline")
	v.SetDefault("datasource.timeout", "15s")
	v.SetDefault("datasource.requests_per_second", 5)
	v.SetDefault("datasource.cache_ttl", "5m")
	v.SetDefault("datasource.headline_limit", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Valuation.DiscountRate <= 0 || c.Valuation.DiscountRate >= 1 {
		errs = append(errs, fmt.Errorf("valuation.discount_rate must be in (0, 1), got %g", c.Valuation.DiscountRate))
	}
	if c.Valuation.Years < 1 {
		errs = append(errs, fmt.Errorf("valuation.years must be >= 1, got %d", c.Valuation.Years))
	}
	if len(c.Valuation.MAWindows) == 0 {
		errs = append(errs, errors.New("valuation.ma_windows must not be empty"))
	}
	for _, w := range c.Valuation.MAWindows {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("valuation.ma_windows entries must be positive, got %d", w))
		}
	}
	if c.Valuation.HistoryDays < 1 {
		errs = append(errs, fmt.Errorf("valuation.history_days must be >= 1, got %d", c.Valuation.HistoryDays))
	}
	if c.DataSource.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("datasource.timeout must be positive, got %s", c.DataSource.Timeout))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil || c.Logging.Level == "" {
		errs = append(errs, fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
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
