// Package config loads the YAML settings of the recur command.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/rrule"
)

// Formats accepted by the format setting.
var Formats = []string{"text", "json", "ics", "xcal"}

// Config holds the settings of the recur command.
type Config struct {
	Timezone       string      `yaml:"timezone"`
	Format         string      `yaml:"format"`
	MaxOccurrences int         `yaml:"max_occurrences"`
	MaxSkips       int         `yaml:"max_skips"`
	Cache          CacheConfig `yaml:"cache"`
	Feed           FeedConfig  `yaml:"feed"`
}

// CacheConfig mirrors recurrence.CacheConfig.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// FeedConfig controls how calendars given by URL are downloaded.
type FeedConfig struct {
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Timezone:       "UTC",
		Format:         "text",
		MaxOccurrences: rrule.DefaultLimit,
		MaxSkips:       rrule.DefaultMaxSkips,
		Cache: CacheConfig{
			Enabled:    false,
			TTL:        recurrence.DefaultCacheConfig.TTL,
			MaxEntries: recurrence.DefaultCacheConfig.MaxEntries,
		},
		Feed: FeedConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &OpError{
			Op:   "config.load",
			Kind: KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, &OpError{
			Op:   "config.load",
			Kind: KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, &OpError{
			Op:   "config.validate",
			Kind: KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return cfg, nil
}

// Validate checks field ranges and names.
func (c Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if !slices.Contains(Formats, c.Format) {
		errs = append(errs, fmt.Errorf("format: %q is not one of %v", c.Format, Formats))
	}
	if c.MaxOccurrences < 0 {
		errs = append(errs, fmt.Errorf("max_occurrences: must not be negative, got %d", c.MaxOccurrences))
	}
	if c.MaxSkips < 0 {
		errs = append(errs, fmt.Errorf("max_skips: must not be negative, got %d", c.MaxSkips))
	}
	if c.Cache.Enabled && (c.Cache.TTL <= 0 || c.Cache.MaxEntries <= 0) {
		errs = append(errs, errors.New("cache: ttl and max_entries must be positive when enabled"))
	}
	if c.Feed.Timeout < 0 {
		errs = append(errs, fmt.Errorf("feed.timeout: must not be negative, got %s", c.Feed.Timeout))
	}
	if c.Feed.Password != "" && c.Feed.Username == "" {
		errs = append(errs, errors.New("feed: password given without username"))
	}
	return errors.Join(errs...)
}

// Location resolves the timezone setting.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// EngineConfig maps the settings onto a recurrence engine configuration.
func (c Config) EngineConfig() recurrence.EngineConfig {
	ec := recurrence.DisabledCacheConfig
	if c.Cache.Enabled {
		ec.CacheEnabled = true
		ec.CacheConfig = recurrence.CacheConfig{
			TTL:             c.Cache.TTL,
			MaxEntries:      c.Cache.MaxEntries,
			CleanupInterval: recurrence.DefaultCacheConfig.CleanupInterval,
		}
	}
	if c.MaxOccurrences > 0 {
		ec.MaxOccurrences = c.MaxOccurrences
	}
	if c.MaxSkips > 0 {
		ec.MaxSkips = c.MaxSkips
	}
	return ec
}
