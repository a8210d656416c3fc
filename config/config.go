// Package config loads the flatten run configuration from a JSON or YAML
// file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultModifiersDir is where replacement files live unless overridden
const DefaultModifiersDir = "src/modifiers"

// ErrInvalidConfig indicates a malformed or incomplete configuration
var ErrInvalidConfig = errors.New("invalid config")

// Config drives one flatten run
type Config struct {
	InputFile    string            `mapstructure:"input_file" yaml:"input_file" json:"input_file"`
	OutputFile   string            `mapstructure:"output_file" yaml:"output_file" json:"output_file"`
	Modifiers    map[string]string `mapstructure:"modifiers" yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
	ModifiersDir string            `mapstructure:"modifiers_dir" yaml:"modifiers_dir,omitempty" json:"modifiers_dir,omitempty"`
	SearchRoot   string            `mapstructure:"search_root" yaml:"search_root,omitempty" json:"search_root,omitempty"`
}

// Load reads and validates a configuration file
func Load(location string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(location)
	v.SetDefault("modifiers_dir", DefaultModifiersDir)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %v: %w", location, err)
	}
	result := &Config{}
	if err := v.Unmarshal(result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %v: %v", ErrInvalidConfig, location, err)
	}
	result.Init()
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// Init fills derived defaults
func (c *Config) Init() {
	if c.ModifiersDir == "" {
		c.ModifiersDir = DefaultModifiersDir
	}
	if c.SearchRoot == "" && c.InputFile != "" {
		c.SearchRoot = filepath.Dir(c.InputFile)
	}
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("%w: input_file is required", ErrInvalidConfig)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("%w: output_file is required", ErrInvalidConfig)
	}
	return nil
}
