package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/suykerbuyk/phasetime/internal/report"
)

// ConfigDir returns the phasetime config directory path.
// Uses $XDG_CONFIG_HOME/phasetime if set, otherwise ~/.config/phasetime.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "phasetime")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "phasetime")
}

// WriteDefault writes a commented default config.toml.
// Returns the config file path and the action taken ("created" or
// "unchanged"). An existing config file is never overwritten.
func WriteDefault() (string, string, error) {
	dir := ConfigDir()
	path := filepath.Join(dir, "config.toml")

	if _, err := os.Stat(path); err == nil {
		return path, "unchanged", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create config dir: %w", err)
	}

	quoted := make([]string, len(report.DefaultPalette))
	for i, c := range report.DefaultPalette {
		quoted[i] = fmt.Sprintf("%q", c)
	}

	content := fmt.Sprintf(`# Phases whose share of run time is at or below this ratio are
# folded into the Other wedge.
threshold = 0.008

# What to do with a log that has no usable run time: "abort" or "skip".
on_error = "abort"

# Optional YAML or TOML phase catalogue replacing the built-in one.
# phases_file = "~/swift-phases.yaml"

# Name of the log looked for when a directory is given instead of a file.
log_name = "output.log"

[chart]
output = "time_pie.png"
renderer = "auto"     # auto, gg, svg or gochart
width = 960
height = 960
title = "SWIFT operations"
explode = 0.2
start_angle = -15.0
palette = [%s]

[history]
enabled = false
path = %q
`, strings.Join(quoted, ", "), CompressHome(filepath.Join(StateDir(), "history.db")))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("write config: %w", err)
	}

	return path, "created", nil
}

// CompressHome replaces $HOME prefix with ~/ for portable config values.
func CompressHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home+"/") {
		return "~/" + path[len(home)+1:]
	}
	if path == home {
		return "~"
	}
	return path
}
