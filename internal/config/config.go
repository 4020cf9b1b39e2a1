// Package config handles configuration loading for factsheet.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seenimoa/factsheet/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. FACTSHEET_SEC_CIK.
const EnvPrefix = "FACTSHEET"

// Config represents the complete application configuration.
type Config struct {
	SEC     SECConfig     `mapstructure:"sec"     yaml:"sec"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SECConfig holds EDGAR access settings.
type SECConfig struct {
	CIK        string  `mapstructure:"cik"         yaml:"cik"`        // company to report on
	UserAgent  string  `mapstructure:"user_agent"  yaml:"user_agent"` // "Name email@example.com"
	DataURL    string  `mapstructure:"data_url"    yaml:"data_url"`
	WWWURL     string  `mapstructure:"www_url"     yaml:"www_url"`
	TimeoutSec int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	RateLimit  float64 `mapstructure:"rate_limit"  yaml:"rate_limit"` // requests/second
	FeedCount  int     `mapstructure:"feed_count"  yaml:"feed_count"`
}

// Timeout returns the HTTP timeout as a duration.
func (c SECConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ReportConfig holds pipeline and output settings.
type ReportConfig struct {
	Form            string `mapstructure:"form"               yaml:"form"`
	Taxonomy        string `mapstructure:"taxonomy"           yaml:"taxonomy"`
	Unit            string `mapstructure:"unit"               yaml:"unit"`
	QuickRatioMinFY int    `mapstructure:"quick_ratio_min_fy" yaml:"quick_ratio_min_fy"`
	OutputDir       string `mapstructure:"output_dir"         yaml:"output_dir"`
	HTML            bool   `mapstructure:"html"               yaml:"html"`
	PDF             bool   `mapstructure:"pdf"                yaml:"pdf"`
	ChartWidth      int    `mapstructure:"chart_width"        yaml:"chart_width"`
	ChartHeight     int    `mapstructure:"chart_height"       yaml:"chart_height"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.factsheet/config.yaml (home directory)
//  3. /etc/factsheet/config.yaml (system)
//
// Environment variables override config file values.
// Format: FACTSHEET_<SECTION>_<KEY>, e.g., FACTSHEET_SEC_USER_AGENT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".factsheet"))
	v.AddConfigPath("/etc/factsheet")

	// Read config file (not required to exist)
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// SEC defaults (Tesla, Inc.)
	v.SetDefault("sec.cik", "0001318605")
	v.SetDefault("sec.user_agent", "")
	v.SetDefault("sec.data_url", "https://data.sec.gov")
	v.SetDefault("sec.www_url", "https://www.sec.gov")
	v.SetDefault("sec.timeout_sec", 30)
	v.SetDefault("sec.rate_limit", 10)
	v.SetDefault("sec.feed_count", 40)

	// Report defaults
	v.SetDefault("report.form", "10-K")
	v.SetDefault("report.taxonomy", "us-gaap")
	v.SetDefault("report.unit", "USD")
	v.SetDefault("report.quick_ratio_min_fy", 2011)
	v.SetDefault("report.output_dir", "./out")
	v.SetDefault("report.html", true)
	v.SetDefault("report.pdf", false)
	v.SetDefault("report.chart_width", 1000)
	v.SetDefault("report.chart_height", 600)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate normalizes the CIK and rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	cik, err := utils.NormalizeCIK(c.SEC.CIK)
	if err != nil {
		return fmt.Errorf("config sec.cik: %w", err)
	}
	c.SEC.CIK = cik

	if c.SEC.TimeoutSec <= 0 {
		return fmt.Errorf("config sec.timeout_sec: must be positive, got %d", c.SEC.TimeoutSec)
	}
	if strings.TrimSpace(c.Report.Form) == "" {
		return fmt.Errorf("config report.form: must not be empty")
	}
	if c.Report.ChartWidth <= 0 || c.Report.ChartHeight <= 0 {
		return fmt.Errorf("config report.chart_width/chart_height: must be positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config logging.format: %q is not console or json", c.Logging.Format)
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
