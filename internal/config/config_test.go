package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDir_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, DefaultShadersDir), cfg.ShadersDir)
	assert.Equal(t, filepath.Join(dir, DefaultExamplesDir), cfg.ExamplesDir)
	assert.Equal(t, 300*time.Millisecond, cfg.Compile.QuietPeriod)
	assert.Equal(t, "1.3", cfg.Compile.SPIRVVersion)
	assert.Equal(t, DefaultIRValidate, cfg.Compile.IRValidate)
	assert.Equal(t, 30, cfg.Preview.FPS)
	assert.Equal(t, "es300", cfg.Preview.GLSLVersion)
}

func TestLoadFromDir_File(t *testing.T) {
	dir := t.TempDir()
	yml := `shaders_dir: wgsl
compile:
  quiet_period: 150ms
  spirv_version: "1.5"
  validate: true
preview:
  fps: 60
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yml), 0o600))

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "wgsl"), cfg.ShadersDir)
	assert.Equal(t, 150*time.Millisecond, cfg.Compile.QuietPeriod)
	assert.Equal(t, "1.5", cfg.Compile.SPIRVVersion)
	assert.True(t, cfg.Compile.IRValidate)
	assert.Equal(t, 60, cfg.Preview.FPS)
	assert.Equal(t, "es300", cfg.Preview.GLSLVersion)
}

func TestLoadFromDir_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), []byte("compile: [oops"), 0o600))

	_, err := LoadFromDir(dir)
	assert.Error(t, err)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("{}"), 0o600))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Empty(t, FindProjectRoot(t.TempDir()))
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "", ResolvePath("", "/base"))
	assert.Equal(t, "/abs", ResolvePath("/abs", "/base"))
	assert.Equal(t, filepath.Join("/base", "rel"), ResolvePath("rel", "/base"))
}

func TestCompileConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       CompileConfig
		errSubstr string
	}{
		{name: "defaults", cfg: CompileConfig{SPIRVVersion: "1.3"}},
		{name: "empty version", cfg: CompileConfig{}},
		{name: "negative quiet period", cfg: CompileConfig{QuietPeriod: -time.Second}, errSubstr: "quiet_period"},
		{name: "unknown version", cfg: CompileConfig{SPIRVVersion: "2.0"}, errSubstr: "spirv_version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestPreviewConfig_Validate(t *testing.T) {
	assert.NoError(t, (&PreviewConfig{FPS: 30, GLSLVersion: "es300"}).Validate())
	assert.ErrorContains(t, (&PreviewConfig{FPS: 0}).Validate(), "preview.fps")
	assert.ErrorContains(t, (&PreviewConfig{FPS: 500}).Validate(), "preview.fps")
	assert.ErrorContains(t, (&PreviewConfig{FPS: 30, GLSLVersion: "es100"}).Validate(), "glsl_version")
}

func TestCompileConfig_NagaConfig(t *testing.T) {
	cfg := CompileConfig{SPIRVVersion: "1.0", IRValidate: true}
	nc, err := cfg.NagaConfig()
	require.NoError(t, err)
	assert.True(t, nc.Validate)
	assert.NoError(t, cfg.Validate())

	nc, err = (&CompileConfig{}).NagaConfig()
	require.NoError(t, err)
	assert.False(t, nc.Validate)

	_, err = (&CompileConfig{SPIRVVersion: "x"}).NagaConfig()
	assert.Error(t, err)
}
