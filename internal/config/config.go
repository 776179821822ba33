package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/suykerbuyk/phasetime/internal/classify"
	"github.com/suykerbuyk/phasetime/internal/report"
)

// Config holds all phasetime configuration.
type Config struct {
	Threshold  float64 `toml:"threshold"`
	OnError    string  `toml:"on_error"`
	PhasesFile string  `toml:"phases_file"`
	LogName    string  `toml:"log_name"`

	Chart   ChartConfig   `toml:"chart"`
	History HistoryConfig `toml:"history"`
}

type ChartConfig struct {
	Output     string   `toml:"output"`
	Renderer   string   `toml:"renderer"`
	Width      int      `toml:"width"`
	Height     int      `toml:"height"`
	Title      string   `toml:"title"`
	Explode    float64  `toml:"explode"`
	StartAngle float64  `toml:"start_angle"`
	Palette    []string `toml:"palette"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	style := report.DefaultStyle()
	return Config{
		Threshold: classify.DefaultThreshold,
		OnError:   "abort",
		LogName:   "output.log",
		Chart: ChartConfig{
			Output:     "time_pie.png",
			Renderer:   "auto",
			Width:      960,
			Height:     960,
			Title:      style.Title,
			Explode:    style.Explode,
			StartAngle: style.StartAngle,
			Palette:    style.Palette,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    filepath.Join(StateDir(), "history.db"),
		},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	cfg := DefaultConfig()
	cfg.expand()
	return cfg, cfg.Validate()
}

// LoadFile reads config from path over the defaults. Keys missing from
// the file keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.expand()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold %v out of range [0, 1)", c.Threshold)
	}
	switch c.OnError {
	case "abort", "skip":
	default:
		return fmt.Errorf("on_error %q: want abort or skip", c.OnError)
	}
	if c.LogName == "" || strings.ContainsRune(c.LogName, filepath.Separator) {
		return fmt.Errorf("log_name %q must be a plain file name", c.LogName)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart size %dx%d must be positive", c.Chart.Width, c.Chart.Height)
	}
	if c.Chart.Explode < 0 {
		return fmt.Errorf("chart explode %v must not be negative", c.Chart.Explode)
	}
	return nil
}

func (c *Config) expand() {
	c.PhasesFile = ExpandHome(c.PhasesFile)
	c.Chart.Output = ExpandHome(c.Chart.Output)
	c.History.Path = ExpandHome(c.History.Path)
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "phasetime", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "phasetime", "config.toml"))
	}

	return paths
}

// StateDir returns the directory for phasetime's persistent state.
// Uses $XDG_STATE_HOME/phasetime if set, otherwise ~/.local/state/phasetime.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "phasetime")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "phasetime")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
