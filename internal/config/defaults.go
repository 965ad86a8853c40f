package config

import (
	"github.com/leapstack-labs/leapshader/internal/preview"
	"github.com/leapstack-labs/leapshader/internal/session"
)

// Default configuration values.
const (
	DefaultShadersDir   = "shaders"
	DefaultExamplesDir  = "examples"
	DefaultSPIRVVersion = "1.3"
	DefaultGLSLVersion  = "es300"
	DefaultFPS          = preview.DefaultFPS
	DefaultQuietPeriod  = session.DefaultQuietPeriod
	// DefaultIRValidate keeps per-edit compiles to parse, lower and SPIR-V
	// generation; naga's own Compile validates unless told otherwise.
	DefaultIRValidate = false
)

// Shader file names inside the shaders directory.
const (
	VertexFile   = "vertex.wgsl"
	FragmentFile = "fragment.wgsl"
)

// ApplyDefaults applies default values to a ProjectConfig.
func ApplyDefaults(c *ProjectConfig) {
	if c == nil {
		return
	}
	if c.ShadersDir == "" {
		c.ShadersDir = DefaultShadersDir
	}
	if c.ExamplesDir == "" {
		c.ExamplesDir = DefaultExamplesDir
	}
	ApplyCompileDefaults(&c.Compile)
	ApplyPreviewDefaults(&c.Preview)
}

// ApplyCompileDefaults applies default values to a CompileConfig.
func ApplyCompileDefaults(c *CompileConfig) {
	if c.QuietPeriod == 0 {
		c.QuietPeriod = DefaultQuietPeriod
	}
	if c.SPIRVVersion == "" {
		c.SPIRVVersion = DefaultSPIRVVersion
	}
}

// ApplyPreviewDefaults applies default values to a PreviewConfig.
func ApplyPreviewDefaults(c *PreviewConfig) {
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	if c.GLSLVersion == "" {
		c.GLSLVersion = DefaultGLSLVersion
	}
}

// DefaultsMap returns the defaults as a flat koanf map.
func DefaultsMap() map[string]any {
	return map[string]any{
		"shaders_dir":           DefaultShadersDir,
		"examples_dir":          DefaultExamplesDir,
		"compile.quiet_period":  DefaultQuietPeriod.String(),
		"compile.spirv_version": DefaultSPIRVVersion,
		"compile.validate":      DefaultIRValidate,
		"preview.fps":           DefaultFPS,
		"preview.glsl_version":  DefaultGLSLVersion,
	}
}
