// Package config loads listingledger settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. LISTINGLEDGER_SERVER_PORT.
const EnvPrefix = "LISTINGLEDGER"

// LogConfig selects the zap logger level and encoder.
type LogConfig struct {
	Level       string `mapstructure:"level" validate:"required|in:debug,info,warn,error"`
	Development bool   `mapstructure:"development"`
}

// ClockConfig controls the date stamped on appended records.
type ClockConfig struct {
	Timezone  string `mapstructure:"timezone" validate:"required"`
	FixedDate string `mapstructure:"fixed_date"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port          int      `mapstructure:"port" validate:"required|min:1|max:65535"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
	RateLimitRPS  int      `mapstructure:"rate_limit_rps" validate:"min:0"`
	MaxBodyBytes  int64    `mapstructure:"max_body_bytes" validate:"required|min:1"`
	VerifyCacheMB int      `mapstructure:"verify_cache_mb" validate:"min:0"`
}

// AuditConfig sets how often the background auditor runs; zero disables it.
type AuditConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// MetricsConfig toggles Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the complete application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Clock   ClockConfig   `mapstructure:"clock"`
	Server  ServerConfig  `mapstructure:"server"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// File is the config file that was read, empty when running on
	// defaults and environment only.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("clock.timezone", "Local")
	v.SetDefault("clock.fixed_date", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.verify_cache_mb", 1)
	v.SetDefault("audit.interval", "5m")
	v.SetDefault("metrics.enabled", true)
}

// Load reads configuration. When cfgFile is empty, listingledger.yaml is
// looked up in ./configs and the working directory; a missing file is not an
// error. Environment variables override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("listingledger")
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &cfgNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	conf.File = v.ConfigFileUsed()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks field constraints and the clock settings.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}
	if c.Audit.Interval < 0 {
		return fmt.Errorf("invalid config: audit.interval must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: clock.timezone: %w", err)
	}
	if c.Clock.FixedDate != "" {
		if _, err := time.Parse(chain.DateLayout, c.Clock.FixedDate); err != nil {
			return fmt.Errorf("invalid config: clock.fixed_date must be YYYY-MM-DD: %w", err)
		}
	}
	return nil
}

// Location resolves clock.timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Clock.Timezone)
}

// NewClock builds the date source for new ledgers.
func (c *Config) NewClock() chain.Clock {
	if c.Clock.FixedDate != "" {
		return chain.FixedClock(c.Clock.FixedDate)
	}
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	return chain.SystemClock{Location: loc}
}
