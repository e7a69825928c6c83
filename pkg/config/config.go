// Package config provides configuration loading and management for tissuemask.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tissuemask/pkg/fcm"
	"tissuemask/pkg/gmm"
	"tissuemask/pkg/tissue"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Fuzzy clustering parameters
	Fuzzy struct {
		// Clusters is the number of tissue classes modeled
		Clusters int `yaml:"clusters"`

		// Fuzziness is the exponent controlling membership softness
		Fuzziness float64 `yaml:"fuzziness"`

		// Tolerance is the convergence stop criterion
		Tolerance float64 `yaml:"tolerance"`

		// MaxIterations caps the fuzzy c-means iteration count
		MaxIterations int `yaml:"maxIterations"`
	} `yaml:"fuzzy"`

	// Gaussian mixture parameters
	Mixture struct {
		// Components is the number of Gaussian components
		Components int `yaml:"components"`

		// Tolerance is the EM convergence stop criterion
		Tolerance float64 `yaml:"tolerance"`

		// MaxIterations caps the EM iteration count
		MaxIterations int `yaml:"maxIterations"`
	} `yaml:"mixture"`

	// Contrast describes the MR contrast of the input image.
	// "t1" selects the brightness-based white matter peak rule, any other
	// value the prevalence-based rule.
	Contrast string `yaml:"contrast"`

	// Output parameters
	Output struct {
		// HardSeg selects discrete label output instead of soft
		// memberships/probabilities
		HardSeg bool `yaml:"hardSeg"`

		// PlotFile, when non-empty, is where the fitted-model
		// diagnostic plot is written
		PlotFile string `yaml:"plotFile"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	fp := fcm.DefaultParams()
	cfg.Fuzzy.Clusters = fp.Clusters
	cfg.Fuzzy.Fuzziness = fp.Fuzziness
	cfg.Fuzzy.Tolerance = fp.Tolerance
	cfg.Fuzzy.MaxIterations = fp.MaxIterations

	gp := gmm.DefaultParams()
	cfg.Mixture.Components = gp.Components
	cfg.Mixture.Tolerance = gp.Tolerance
	cfg.Mixture.MaxIterations = gp.MaxIterations

	cfg.Contrast = tissue.ContrastT1

	cfg.Output.HardSeg = false
	cfg.Output.PlotFile = ""
	cfg.Output.Verbose = true

	return cfg
}

// FuzzyOptions converts the configuration into fuzzy engine options
func (c *Config) FuzzyOptions() tissue.FuzzyOptions {
	return tissue.FuzzyOptions{
		Clusters:      c.Fuzzy.Clusters,
		Fuzziness:     c.Fuzzy.Fuzziness,
		Tolerance:     c.Fuzzy.Tolerance,
		MaxIterations: c.Fuzzy.MaxIterations,
		HardSeg:       c.Output.HardSeg,
	}
}

// MixtureOptions converts the configuration into mixture engine options
func (c *Config) MixtureOptions() tissue.MixtureOptions {
	return tissue.MixtureOptions{
		Components:    c.Mixture.Components,
		Tolerance:     c.Mixture.Tolerance,
		MaxIterations: c.Mixture.MaxIterations,
		HardSeg:       c.Output.HardSeg,
	}
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

	return cfg, nil
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
