package config

import (
	"fmt"
	"os"
	"strings"
)

// SettingSource represents where an effective setting comes from.
type SettingSource string

const (
	SourceEnv     SettingSource = "env"
	SourceConfig  SettingSource = "config"
	SourceDefault SettingSource = "default"
)

// SettingStatus describes one effective setting for the status command.
type SettingStatus struct {
	Key    string        `json:"key"`
	Value  string        `json:"value"`
	Source SettingSource `json:"source"`
}

// EnvVar returns the environment variable that overrides a dotted key,
// e.g. "server.port" → "STOCKVALUE_SERVER_PORT".
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Settings returns the effective value and origin of the settings an
// operator most often overrides.
func Settings(cfg *Config) []SettingStatus {
	def := Default()
	return []SettingStatus{
		setting("server.port", cfg.Server.Port, def.Server.Port),
		setting("server.host", cfg.Server.Host, def.Server.Host),
		setting("valuation.default_strategy", cfg.Valuation.DefaultStrategy, def.Valuation.DefaultStrategy),
		setting("valuation.discount_rate", cfg.Valuation.DiscountRate, def.Valuation.DiscountRate),
		setting("valuation.years", cfg.Valuation.Years, def.Valuation.Years),
		setting("valuation.ma_windows", cfg.Valuation.MAWindows, def.Valuation.MAWindows),
		setting("datasource.yahoo_base_url", cfg.DataSource.YahooBaseURL, def.DataSource.YahooBaseURL),
		setting("datasource.cache_ttl", cfg.DataSource.CacheTTL, def.DataSource.CacheTTL),
		setting("logging.level", cfg.Logging.Level, def.Logging.Level),
	}
}

// setting checks whether a value came from the environment, a config file or
// the defaults.
func setting(key string, value, def any) SettingStatus {
	s := SettingStatus{Key: key, Value: fmt.Sprint(value)}
	switch {
	case os.Getenv(EnvVar(key)) != "":
		s.Source = SourceEnv
	case s.Value != fmt.Sprint(def):
		s.Source = SourceConfig
	default:
		s.Source = SourceDefault
	}
	return s
}
