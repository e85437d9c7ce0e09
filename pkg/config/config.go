// Package config provides configuration loading and management for
// mouse2mri. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Transform parameters
	Transform struct {
		// Resolution is the atlas resolution in microns (25, 50 or 100).
		Resolution int `yaml:"resolution"`

		// Workers is the number of parallel workers for streamline
		// transformation.
		Workers int `yaml:"workers"`

		// FailFast stops streamline processing on the first vertex error.
		FailFast bool `yaml:"failFast"`
	} `yaml:"transform"`

	// Resampling parameters
	Resampling struct {
		// Smooth selects cubic interpolation instead of nearest-neighbor.
		Smooth bool `yaml:"smooth"`

		// ClampNegative zeroes negative values after smooth interpolation
		// of density data.
		ClampNegative bool `yaml:"clampNegative"`
	} `yaml:"resampling"`

	// Catalog parameters
	Catalog struct {
		// ExperimentsPath is the JSON experiments catalog location.
		ExperimentsPath string `yaml:"experimentsPath"`

		// StructuresPath is the JSON structure tree location.
		StructuresPath string `yaml:"structuresPath"`

		// SQLitePath, when set, serves the catalog from a sqlite cache
		// instead of the JSON files.
		SQLitePath string `yaml:"sqlitePath"`
	} `yaml:"catalog"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Transform.Resolution = 100
	cfg.Transform.Workers = runtime.NumCPU()
	cfg.Transform.FailFast = false

	cfg.Resampling.Smooth = false
	cfg.Resampling.ClampNegative = true

	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
