package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapshader/internal/config"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// ShaderPath returns the file holding stage inside dir.
func ShaderPath(dir string, stage core.Stage) string {
	if stage == core.StageVertex {
		return filepath.Join(dir, config.VertexFile)
	}
	return filepath.Join(dir, config.FragmentFile)
}

// StageForFile maps a shader file name to its stage.
func StageForFile(path string) (core.Stage, bool) {
	switch filepath.Base(path) {
	case config.VertexFile:
		return core.StageVertex, true
	case config.FragmentFile:
		return core.StageFragment, true
	default:
		return 0, false
	}
}

// ReadShaders reads both stage files from dir. It returns fs.ErrNotExist
// when either file is missing.
func ReadShaders(dir string) (core.SourcePair, error) {
	var pair core.SourcePair
	for _, stage := range core.Stages {
		b, err := os.ReadFile(ShaderPath(dir, stage))
		if err != nil {
			return core.SourcePair{}, err
		}
		pair = pair.With(stage, string(b))
	}
	return pair, nil
}

// WriteShaders writes both stage files into dir, creating it if needed.
func WriteShaders(dir string, pair core.SourcePair) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create shaders directory: %w", err)
	}
	for _, stage := range core.Stages {
		if err := os.WriteFile(ShaderPath(dir, stage), []byte(pair.Get(stage)), 0o600); err != nil {
			return fmt.Errorf("failed to write %s shader: %w", stage, err)
		}
	}
	return nil
}

// ShadersExist reports whether both stage files are present in dir.
func ShadersExist(dir string) bool {
	for _, stage := range core.Stages {
		if _, err := os.Stat(ShaderPath(dir, stage)); errors.Is(err, fs.ErrNotExist) {
			return false
		}
	}
	return true
}
