// Package config provides shared configuration types for LeapShader.
// This package is decoupled from CLI concerns and can be used by the LSP
// and other tools that need to load project configuration.
package config

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapshader/internal/compiler"
	"github.com/leapstack-labs/leapshader/internal/preview"
)

// CompileConfig tunes the compile scheduler and the compiler primitive.
type CompileConfig struct {
	QuietPeriod  time.Duration `koanf:"quiet_period"`
	SPIRVVersion string        `koanf:"spirv_version"`
	// IRValidate enables naga IR validation on top of parsing and lowering.
	IRValidate bool `koanf:"validate"`
}

// PreviewConfig tunes the preview render loop.
type PreviewConfig struct {
	FPS         int    `koanf:"fps"`
	GLSLVersion string `koanf:"glsl_version"`
}

// ProjectConfig holds the project configuration needed by tools like the LSP.
// This is a subset of the full CLI Config.
type ProjectConfig struct {
	ShadersDir  string        `koanf:"shaders_dir"`
	ExamplesDir string        `koanf:"examples_dir"`
	Compile     CompileConfig `koanf:"compile"`
	Preview     PreviewConfig `koanf:"preview"`
}

// ApplyDefaults fills unset fields with defaults.
func (c *ProjectConfig) ApplyDefaults() {
	ApplyDefaults(c)
}

// Validate checks value ranges and version names.
func (c *CompileConfig) Validate() error {
	if c.QuietPeriod < 0 {
		return fmt.Errorf("compile.quiet_period must not be negative, got %s", c.QuietPeriod)
	}
	if _, err := compiler.ParseSPIRVVersion(c.SPIRVVersion); err != nil {
		return fmt.Errorf("compile.spirv_version: %w", err)
	}
	return nil
}

// Validate checks value ranges and version names.
func (c *PreviewConfig) Validate() error {
	if c.FPS < 1 || c.FPS > 240 {
		return fmt.Errorf("preview.fps must be between 1 and 240, got %d", c.FPS)
	}
	if _, err := preview.ParseGLSLVersion(c.GLSLVersion); err != nil {
		return fmt.Errorf("preview.glsl_version: %w", err)
	}
	return nil
}

// NagaConfig converts the compile settings for the compiler primitive.
func (c *CompileConfig) NagaConfig() (compiler.NagaConfig, error) {
	v, err := compiler.ParseSPIRVVersion(c.SPIRVVersion)
	if err != nil {
		return compiler.NagaConfig{}, err
	}
	return compiler.NagaConfig{SPIRVVersion: v, Validate: c.IRValidate}, nil
}
