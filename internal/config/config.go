// Package config provides Viper-based loading of the heuristic tuning knobs.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ClassifierConfig tunes the room scoring heuristic.
type ClassifierConfig struct {
	// ParentWeight is added when an object sits in the root container
	// or at the tree root.
	ParentWeight float64 `mapstructure:"parent_weight"`
	// MovementWeight is added when an object carries a movement property.
	MovementWeight float64 `mapstructure:"movement_weight"`
	// EarlyWeight is added to objects in the early part of the table.
	EarlyWeight float64 `mapstructure:"early_weight"`
	// NameWeight is added when the object has a plausible printable name.
	NameWeight float64 `mapstructure:"name_weight"`
	// Threshold is the minimum score (exclusive) for the room class.
	Threshold float64 `mapstructure:"threshold"`
	// EarlyFraction is the share of the object table counted as "early".
	EarlyFraction float64 `mapstructure:"early_fraction"`
	// TakableAttrV3 overrides the takable attribute for version 1-3 files.
	// -1 keeps the built-in default.
	TakableAttrV3 int `mapstructure:"takable_attr_v3"`
	// TakableAttrV4 overrides the takable attribute for version 4+ files.
	TakableAttrV4 int `mapstructure:"takable_attr_v4"`
}

// ExtractConfig tunes the exit extraction.
type ExtractConfig struct {
	// ExcludedWords are dictionary words whose extra bytes are known to
	// carry non-movement metadata. Merged with the built-in list.
	ExcludedWords []string `mapstructure:"excluded_words"`
}

// LayoutConfig tunes the grid placement.
type LayoutConfig struct {
	// OverflowColumns is the width of the unreachable-rooms grid.
	OverflowColumns int `mapstructure:"overflow_columns"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "text".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Extract    ExtractConfig    `mapstructure:"extract"`
	Layout     LayoutConfig     `mapstructure:"layout"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
func (c Config) Validate() error {
	var errs []string

	if c.Classifier.Threshold < 0 {
		errs = append(errs, fmt.Sprintf("classifier.threshold must be >= 0, got %g", c.Classifier.Threshold))
	}
	if c.Classifier.EarlyFraction <= 0 || c.Classifier.EarlyFraction > 1 {
		errs = append(errs, fmt.Sprintf("classifier.early_fraction must be in (0, 1], got %g", c.Classifier.EarlyFraction))
	}
	if c.Classifier.TakableAttrV3 < -1 || c.Classifier.TakableAttrV3 > 31 {
		errs = append(errs, fmt.Sprintf("classifier.takable_attr_v3 must be -1 or 0-31, got %d", c.Classifier.TakableAttrV3))
	}
	if c.Classifier.TakableAttrV4 < -1 || c.Classifier.TakableAttrV4 > 47 {
		errs = append(errs, fmt.Sprintf("classifier.takable_attr_v4 must be -1 or 0-47, got %d", c.Classifier.TakableAttrV4))
	}
	if c.Layout.OverflowColumns < 1 {
		errs = append(errs, fmt.Sprintf("layout.overflow_columns must be >= 1, got %d", c.Layout.OverflowColumns))
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, text], got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result. An empty path loads the
// defaults only.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetEnvPrefix("ZATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Only defaults are set, so this cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("classifier.parent_weight", 1.0)
	v.SetDefault("classifier.movement_weight", 1.5)
	v.SetDefault("classifier.early_weight", 0.5)
	v.SetDefault("classifier.name_weight", 1.0)
	v.SetDefault("classifier.threshold", 2.0)
	v.SetDefault("classifier.early_fraction", 0.5)
	v.SetDefault("classifier.takable_attr_v3", -1)
	v.SetDefault("classifier.takable_attr_v4", -1)

	v.SetDefault("extract.excluded_words", []string{})

	v.SetDefault("layout.overflow_columns", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
