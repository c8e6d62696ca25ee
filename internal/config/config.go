package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all portsweep configuration.
type Config struct {
	RefreshInterval int      `yaml:"refresh_interval"` // TUI auto-refresh, seconds
	Protocol        string   `yaml:"protocol"`         // default filter: "", "tcp" or "udp"
	Exclude         []string `yaml:"exclude"`          // process names to hide
	ConfirmKill     bool     `yaml:"confirm_kill"`     // ask before terminating
	ColorEnabled    bool     `yaml:"color_enabled"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		RefreshInterval: 2,
		Protocol:        "",
		Exclude:         []string{},
		ConfirmKill:     true,
		ColorEnabled:    true,
	}
}

// Load loads config from the given path. If path is empty, it uses the
// default location (~/.config/portsweep/config.yaml). A missing file
// yields defaults without creating anything.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return Default(), nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return LoadFrom(path)
}

// LoadFrom loads and parses config from the given path. Missing fields
// keep their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save marshals the config to YAML and writes it to the given path,
// creating parent directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Excluded reports whether a process name is on the exclude list.
func (c *Config) Excluded(process string) bool {
	for _, name := range c.Exclude {
		if name == process {
			return true
		}
	}
	return false
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "portsweep", "config.yaml")
}
