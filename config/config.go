// Package config provides configuration loading for exmerge.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/exbook/exmerge/expand"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the config file looked for in the working
// directory when no explicit path is given.
const FileName = "exmerge.yaml"

// Config represents the complete exmerge configuration
type Config struct {
	Exercises ExercisesConfig `yaml:"exercises"`
	Output    OutputConfig    `yaml:"output"`
	Expand    ExpandConfig    `yaml:"expand"`
}

// ExercisesConfig configures where include files are found
type ExercisesConfig struct {
	// Dir is the directory searched for include files
	Dir string `yaml:"dir"`
	// Suffix is the suffix enforced on include file arguments
	Suffix string `yaml:"suffix"`
}

// OutputConfig configures the written output file
type OutputConfig struct {
	// Suffix is appended to the entered filename when absent
	Suffix string `yaml:"suffix"`
}

// ExpandConfig configures the substitution pass
type ExpandConfig struct {
	// MaxPasses is the limit on expansion passes
	MaxPasses int `yaml:"max_passes"`
	// Labels maps bare label tokens to their replacement strings; entries
	// given in a config file are merged over the standard table
	Labels map[string]string `yaml:"labels"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Exercises: ExercisesConfig{
			Dir:    expand.DfltDir,
			Suffix: expand.DfltSuffix,
		},
		Output: OutputConfig{
			Suffix: ".txt",
		},
		Expand: ExpandConfig{
			MaxPasses: expand.DfltMaxPasses,
			Labels:    expand.DefaultLabels(),
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Exercises.Dir == "" {
		return fmt.Errorf("exercises.dir is required")
	}
	if !strings.HasPrefix(c.Exercises.Suffix, ".") {
		return fmt.Errorf("exercises.suffix must start with '.'")
	}
	if !strings.HasPrefix(c.Output.Suffix, ".") {
		return fmt.Errorf("output.suffix must start with '.'")
	}
	if c.Expand.MaxPasses < 1 {
		return fmt.Errorf("expand.max_passes must be at least 1")
	}
	if len(c.Expand.Labels) == 0 {
		return fmt.Errorf("expand.labels must not be empty")
	}
	for tok, label := range c.Expand.Labels {
		if tok == "" || label == "" {
			return fmt.Errorf("expand.labels has a bad entry %q: %q", tok, label)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, layered over the
// defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load loads and validates the configuration. An explicit path must name
// a readable file; with no path, FileName is used if it exists in the
// working directory and otherwise the defaults are returned.
func Load(path string) (*Config, error) {
	var config *Config

	switch {
	case path != "":
		c, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = c
	default:
		if _, err := os.Stat(FileName); err == nil {
			c, err := LoadFromFile(FileName)
			if err != nil {
				return nil, err
			}
			config = c
		} else {
			config = DefaultConfig()
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
