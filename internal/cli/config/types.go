// Package config provides configuration management for the LeapShader CLI.
//
// This package extends the shared project configuration from internal/config
// with CLI-specific fields. The shared section types are re-exported here via
// type aliases for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/leapshader/internal/config"
)

// CompileConfig is an alias for the shared compile configuration.
type CompileConfig = sharedcfg.CompileConfig

// PreviewConfig is an alias for the shared preview configuration.
type PreviewConfig = sharedcfg.PreviewConfig

// UIConfig holds configuration for the preview UI server.
type UIConfig struct {
	Port     int  `koanf:"port"`
	AutoOpen bool `koanf:"auto_open"`
	Watch    bool `koanf:"watch"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:     DefaultUIPort,
		AutoOpen: true,
		Watch:    true,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultUIPort
	}
	return ui
}

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot  string        `koanf:"-"`
	ShadersDir   string        `koanf:"shaders_dir"`
	ExamplesDir  string        `koanf:"examples_dir"`
	StatePath    string        `koanf:"state_path"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	Compile      CompileConfig `koanf:"compile"`
	Preview      PreviewConfig `koanf:"preview"`
	UI           *UIConfig     `koanf:"ui"`
}

// Project returns the shared view of the configuration.
func (c *Config) Project() *sharedcfg.ProjectConfig {
	return &sharedcfg.ProjectConfig{
		ShadersDir:  c.ShadersDir,
		ExamplesDir: c.ExamplesDir,
		Compile:     c.Compile,
		Preview:     c.Preview,
	}
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultShadersDir  = sharedcfg.DefaultShadersDir
	DefaultExamplesDir = sharedcfg.DefaultExamplesDir
	DefaultStateFile   = ".leapshader/state.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultUIPort      = 8766
)
