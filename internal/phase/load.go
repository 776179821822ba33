package phase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// file is the on-disk shape of a catalogue, shared by YAML and TOML.
type file struct {
	Phases []Definition `toml:"phases" yaml:"phases"`
}

// LoadFile reads a catalogue from a YAML (.yaml, .yml) or TOML (.toml) file.
func LoadFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phases: %w", err)
	}

	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse phases %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("parse phases %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("phases %s: unsupported format (want .yaml, .yml or .toml)", path)
	}

	c, err := New(f.Phases)
	if err != nil {
		return nil, fmt.Errorf("phases %s: %w", path, err)
	}
	return c, nil
}

// YAML encodes c in the format LoadFile reads from .yaml files.
func (c *Catalogue) YAML() ([]byte, error) {
	return yaml.Marshal(file{Phases: c.Definitions()})
}
