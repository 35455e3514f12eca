// Package config holds the settings of the refdb command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/JohannaVonLuck/refdb"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "refdb.toml"

// Config is read from a TOML file:
//
//	data_dir    = "Reference"
//	pattern     = "*.dat"
//	log_file    = "Reference/load.log"
//	load_log    = true
//	capacity    = 8087
//	trace_level = "Info"
type Config struct {
	DataDir    string `toml:"data_dir"`
	Pattern    string `toml:"pattern"`
	LogFile    string `toml:"log_file"`
	LoadLog    bool   `toml:"load_log"`
	Capacity   int    `toml:"capacity"`
	TraceLevel string `toml:"trace_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DataDir:    "Reference",
		Pattern:    "*.dat",
		LogFile:    "Reference/load.log",
		LoadLog:    true,
		Capacity:   refdb.Capacity,
		TraceLevel: "Info",
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if !doublestar.ValidatePattern(c.Pattern) {
		return fmt.Errorf("invalid pattern %q", c.Pattern)
	}
	if c.Capacity <= refdb.ProbeStride || c.Capacity%refdb.ProbeStride == 0 {
		return fmt.Errorf("capacity %d must exceed and not be a multiple of %d",
			c.Capacity, refdb.ProbeStride)
	}
	switch c.TraceLevel {
	case "Debug", "Info", "Error":
	default:
		return fmt.Errorf("unknown trace_level %q", c.TraceLevel)
	}
	return nil
}

// StoreOptions translates the settings into store options.
func (c *Config) StoreOptions() []refdb.Option {
	return []refdb.Option{
		refdb.WithCapacity(c.Capacity),
		refdb.WithLoadLog(c.LogFile),
		refdb.WithLoadLogging(c.LoadLog),
	}
}
