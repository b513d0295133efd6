// Package config loads the settings of folio from an optional YAML file, the
// environment and a .env file.
//
// Environment variables override the file: FOLIO_<KEY>, e.g.
// FOLIO_BASE_CURRENCY=EUR.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/fx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config is the configuration of a consolidation run.
type Config struct {
	BaseCurrency     string            `mapstructure:"base_currency"`
	Workers          int               `mapstructure:"workers"`
	ParseTimeout     time.Duration     `mapstructure:"parse_timeout"`
	RateLookbackDays int               `mapstructure:"rate_lookback_days"`
	RatesFile        string            `mapstructure:"rates_file"` // JSONL exchange rates
	LogLevel         string            `mapstructure:"log_level"`  // debug, info, warn, error
	LogPretty        bool              `mapstructure:"log_pretty"`
	Securities       map[string]string `mapstructure:"securities"` // ticker -> ISIN
}

// Load reads the configuration file at path, or "folio.yaml" in the current
// or the user config directory when path is empty. A missing default file is
// not an error.
func Load(path string) (*Config, error) {
	// a missing .env file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("folio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/folio")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.BaseCurrency))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_currency", "USD")
	v.SetDefault("workers", 4)
	v.SetDefault("parse_timeout", 30*time.Second)
	v.SetDefault("rate_lookback_days", 5)
	v.SetDefault("rates_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
}

// Validate checks the values of the configuration.
func (c *Config) Validate() error {
	var errs []error
	if !folio.IsCurrency(c.BaseCurrency) {
		errs = append(errs, fmt.Errorf("invalid base_currency %q", c.BaseCurrency))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.ParseTimeout < 0 {
		errs = append(errs, fmt.Errorf("parse_timeout must not be negative, got %s", c.ParseTimeout))
	}
	if c.RateLookbackDays < 0 {
		errs = append(errs, fmt.Errorf("rate_lookback_days must not be negative, got %d", c.RateLookbackDays))
	}
	for ticker, isin := range c.Securities {
		if err := folio.ValidateISIN(strings.ToUpper(isin)); err != nil {
			errs = append(errs, fmt.Errorf("securities: %s: %w", ticker, err))
		}
	}
	return errors.Join(errs...)
}

// Rates loads the exchange rates file, nil when there is none.
func (c *Config) Rates() (fx.Source, error) {
	if c.RatesFile == "" {
		return nil, nil
	}
	tbl, err := fx.Load(c.RatesFile, c.RateLookbackDays)
	if err != nil {
		return nil, err
	}
	return fx.NewCached(tbl, 0), nil
}

// Logger returns the logger of the run, writing to w.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "disabled", "off":
		level = zerolog.Disabled
	}
	if c.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
