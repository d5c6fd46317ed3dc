// Package config loads and persists the weft.yml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project root.
const FileName = "weft.yml"

// Config represents the weft.yml configuration
type Config struct {
	// Dialect selects the render backend: "plain" or "vue"
	Dialect string `yaml:"dialect,omitempty"`

	// TemplatesDir is where *.json template documents live
	TemplatesDir string `yaml:"templatesDir,omitempty"`

	// OutputDir receives rendered files
	OutputDir string `yaml:"outputDir,omitempty"`

	// FileExtension for plain-dialect output; backends override it
	FileExtension string `yaml:"fileExtension,omitempty"`

	// PreferSelfClosingTags renders childless elements self-closing
	PreferSelfClosingTags bool `yaml:"preferSelfClosingTags,omitempty"`

	// Extensions lists extension keys applied to every render
	Extensions []string `yaml:"extensions,omitempty"`

	// Styles configuration
	Styles *StylesConfig `yaml:"styles,omitempty"`

	// Development server configuration
	Dev *DevConfig `yaml:"dev,omitempty"`

	// Verbose enables informational logging
	Verbose bool `yaml:"verbose,omitempty"`
}

// StylesConfig contains stylesheet-related configuration
type StylesConfig struct {
	// OutputFormat is "css", "scss" or "inline"
	OutputFormat string `yaml:"outputFormat,omitempty"`
}

// DevConfig contains development server configuration
type DevConfig struct {
	// Server port
	Port int `yaml:"port,omitempty"`

	// Server host
	Host string `yaml:"host,omitempty"`
}

// Load loads configuration from weft.yml
func Load(projectPath string) (*Config, error) {
	configPath := filepath.Join(projectPath, FileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Return default config if no file exists
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

// Save saves configuration to weft.yml
func Save(config *Config, projectPath string) error {
	configPath := filepath.Join(projectPath, FileName)

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Dialect:       "plain",
		TemplatesDir:  "templates",
		OutputDir:     "dist",
		FileExtension: "html",
		Styles: &StylesConfig{
			OutputFormat: "css",
		},
		Dev: &DevConfig{
			Port: 7433,
			Host: "localhost",
		},
	}
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Dialect == "" {
		config.Dialect = defaults.Dialect
	}
	if config.TemplatesDir == "" {
		config.TemplatesDir = defaults.TemplatesDir
	}
	if config.OutputDir == "" {
		config.OutputDir = defaults.OutputDir
	}
	if config.FileExtension == "" {
		config.FileExtension = defaults.FileExtension
	}

	if config.Styles == nil {
		config.Styles = defaults.Styles
	} else if config.Styles.OutputFormat == "" {
		config.Styles.OutputFormat = defaults.Styles.OutputFormat
	}

	if config.Dev == nil {
		config.Dev = defaults.Dev
	} else {
		if config.Dev.Port == 0 {
			config.Dev.Port = defaults.Dev.Port
		}
		if config.Dev.Host == "" {
			config.Dev.Host = defaults.Dev.Host
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Dialect {
	case "", "plain", "vue":
	default:
		return fmt.Errorf("unknown dialect %q", c.Dialect)
	}
	if c.Styles != nil {
		switch c.Styles.OutputFormat {
		case "", "css", "scss", "inline":
		default:
			return fmt.Errorf("unknown style output format %q", c.Styles.OutputFormat)
		}
	}
	return nil
}
