// Package config provides configuration loading and management for imodkit.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"imodkit/pkg/batch"
	"imodkit/pkg/colormap"
	"imodkit/pkg/imod"
	"imodkit/pkg/meshcmd"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Workers specifies how many files are processed in parallel
		Workers int `yaml:"workers"`

		// Lenient tolerates unknown or missing chunks after the last object
		Lenient bool `yaml:"lenient"`
	} `yaml:"processing"`

	// External meshing parameters
	Mesh struct {
		// Command is the meshing tool with its flags, e.g. "imodmesh -C"
		Command string `yaml:"command"`

		// TempDir holds the temporary model handed to the tool
		TempDir string `yaml:"tempDir"`
	} `yaml:"mesh"`

	// Colormap parameters
	Colormap struct {
		// Name is "imod" for the built-in palette or a path to a .cmap file
		Name string `yaml:"name"`
	} `yaml:"colormap"`

	// Output parameters
	Output struct {
		// Dir receives edited files; empty writes next to the input
		Dir string `yaml:"dir"`

		// Suffix is appended to output file names before the extension
		Suffix string `yaml:"suffix"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.Workers = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Lenient = false

	// Set default meshing parameters
	cfg.Mesh.Command = meshcmd.DefaultCommand
	cfg.Mesh.TempDir = ""

	cfg.Colormap.Name = colormap.DefaultName

	// Set default output parameters
	cfg.Output.Dir = ""
	cfg.Output.Suffix = ""
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be used as given
func (c *Config) Validate() error {
	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing.workers must be >= 1, got %d", c.Processing.Workers)
	}
	if strings.TrimSpace(c.Mesh.Command) == "" {
		return fmt.Errorf("mesh.command must not be empty")
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// DecodeOptions returns the decoder settings of the configuration
func (c *Config) DecodeOptions() imod.DecodeOptions {
	return imod.DecodeOptions{Lenient: c.Processing.Lenient}
}

// Batch returns the batch settings of the configuration
func (c *Config) Batch() batch.Config {
	return batch.Config{
		OutputDir: c.Output.Dir,
		Suffix:    c.Output.Suffix,
		Workers:   c.Processing.Workers,
		Decode:    c.DecodeOptions(),
	}
}

// Mesher returns the external meshing runner of the configuration
func (c *Config) Mesher() (*meshcmd.Runner, error) {
	r, err := meshcmd.Parse(c.Mesh.Command)
	if err != nil {
		return nil, err
	}
	r.TempDir = c.Mesh.TempDir
	r.Decode = c.DecodeOptions()
	return r, nil
}

// LoadColormap resolves the configured palette
func (c *Config) LoadColormap() (*colormap.Colormap, error) {
	return colormap.Resolve(c.Colormap.Name)
}
