package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	MusicFolder      string `koanf:"music_folder"`       // root for relative track paths; empty means cwd
	MaxPrecacheCount int    `koanf:"max_precache_count"` // prepared players kept ahead of the cursor (default: 2)
	EndlessQueue     bool   `koanf:"endless_queue"`      // ask the queue source for more tracks at the end

	Crossfade CrossfadeConfig `koanf:"crossfade"`
}

// CrossfadeConfig holds transition settings.
type CrossfadeConfig struct {
	Enabled         bool    `koanf:"enabled"`
	DurationSeconds float64 `koanf:"duration_seconds"` // fade length (default: 6)
	CurveIn         string  `koanf:"curve_in"`         // "linear", "exponential", "logarithmic", "s-curve"
	CurveOut        string  `koanf:"curve_out"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		MusicFolder: "", // empty means use cwd
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ in music_folder
	if cfg.MusicFolder != "" {
		cfg.MusicFolder = expandPath(cfg.MusicFolder)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/segue/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "segue", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetMaxPrecacheCount returns the precache bound with defaults applied.
func (c *Config) GetMaxPrecacheCount() int {
	if c.MaxPrecacheCount <= 0 || c.MaxPrecacheCount > 10 {
		return 2
	}
	return c.MaxPrecacheCount
}

// GetCrossfadeConfig returns the crossfade configuration with defaults
// applied.
func (c *Config) GetCrossfadeConfig() CrossfadeConfig {
	cfg := c.Crossfade

	if cfg.DurationSeconds <= 0 {
		cfg.DurationSeconds = 6
	}
	if cfg.CurveIn == "" {
		cfg.CurveIn = "linear"
	}
	if cfg.CurveOut == "" {
		cfg.CurveOut = "linear"
	}

	return cfg
}

// Duration returns the fade length as a time.Duration.
func (c CrossfadeConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds * float64(time.Second))
}
