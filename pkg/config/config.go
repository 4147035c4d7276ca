// Package config reads process configuration from the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Log output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Configuration keys. With AutomaticEnv each one is read from the upper-cased
// environment variable of the same name (log_level -> LOG_LEVEL).
const (
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyParserWorkers  = "parser_workers"
	KeyMetricsEnabled = "metrics_enabled"
	KeyExtractorOrder = "extractor_order"
)

// Config holds all runtime settings.
type Config struct {
	Log       LogConfig
	Parser    ParserConfig
	Metrics   MetricsConfig
	Extractor ExtractorConfig
}

type LogConfig struct {
	Level  slog.Level
	Format string // json or text
}

type ParserConfig struct {
	Workers int // concurrent table parses, at least 1
}

type MetricsConfig struct {
	Enabled bool
}

type ExtractorConfig struct {
	Order []string // extraction methods tried in order
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: slog.LevelInfo, Format: FormatJSON},
		Parser:    ParserConfig{Workers: max(runtime.GOMAXPROCS(0), 1)},
		Extractor: ExtractorConfig{Order: []string{"lattice", "stream"}},
	}
}

// NewViper returns a viper instance with every key defaulted and bound to the environment.
// Callers may bind flags on it before calling FromViper.
func NewViper() *viper.Viper {
	d := Default()

	v := viper.New()
	v.SetDefault(KeyLogLevel, d.Log.Level.String())
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeyParserWorkers, d.Parser.Workers)
	v.SetDefault(KeyMetricsEnabled, d.Metrics.Enabled)
	v.SetDefault(KeyExtractorOrder, strings.Join(d.Extractor.Order, ","))
	v.AutomaticEnv()

	return v
}

// Load reads LOG_LEVEL, LOG_FORMAT, PARSER_WORKERS, METRICS_ENABLED and EXTRACTOR_ORDER.
// Unset variables keep their defaults; malformed ones are errors.
func Load() (*Config, error) {
	return FromViper(NewViper())
}

// FromViper validates the values held by v. Every malformed key is reported.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()
	var errs []error

	level := strings.TrimSpace(v.GetString(KeyLogLevel))
	if err := cfg.Log.Level.UnmarshalText([]byte(level)); err != nil {
		errs = append(errs, invalid(KeyLogLevel, level, ""))
	}

	switch f := strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))); f {
	case FormatJSON, FormatText:
		cfg.Log.Format = f
	default:
		errs = append(errs, invalid(KeyLogFormat, f, ""))
	}

	workers, err := cast.ToIntE(trimmed(v.Get(KeyParserWorkers)))
	if err != nil || workers < 1 {
		errs = append(errs, invalid(KeyParserWorkers, v.Get(KeyParserWorkers), "must be a positive integer"))
	} else {
		cfg.Parser.Workers = workers
	}

	enabled, err := cast.ToBoolE(trimmed(v.Get(KeyMetricsEnabled)))
	if err != nil {
		errs = append(errs, invalid(KeyMetricsEnabled, v.Get(KeyMetricsEnabled), ""))
	} else {
		cfg.Metrics.Enabled = enabled
	}

	var order []string
	for _, m := range strings.Split(v.GetString(KeyExtractorOrder), ",") {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			order = append(order, m)
		}
	}
	if len(order) == 0 {
		errs = append(errs, invalid(KeyExtractorOrder, v.GetString(KeyExtractorOrder), "is empty"))
	} else {
		cfg.Extractor.Order = order
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func invalid(key string, value any, reason string) error {
	name := strings.ToUpper(key)
	if reason == "" {
		return fmt.Errorf("%s %q: %w", name, fmt.Sprint(value), ErrInvalidConfig)
	}
	return fmt.Errorf("%s %q %s: %w", name, fmt.Sprint(value), reason, ErrInvalidConfig)
}

func trimmed(v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}
