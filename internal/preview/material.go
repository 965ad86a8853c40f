// Package preview keeps the rendered material in step with the committed
// source pair.
package preview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/naga/glsl"

	"github.com/leapstack-labs/leapshader/internal/compiler"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Material is an immutable renderable built from one committed pair.
type Material struct {
	Pair core.SourcePair
	Hash string

	VertexSPIRV   []uint32
	FragmentSPIRV []uint32
	// VertexGLSL and FragmentGLSL feed the browser WebGL preview.
	VertexGLSL   string
	FragmentGLSL string
	// Uniforms lists the combined texture-sampler uniforms per stage.
	Uniforms []string

	Built time.Time
}

// Builder constructs a material from a committed pair.
type Builder interface {
	Build(ctx context.Context, pair core.SourcePair) (*Material, error)
}

// BuildError attributes a material build failure to a stage.
type BuildError struct {
	Stage core.Stage
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s stage: %v", strings.ToLower(e.Stage.String()), e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ParseGLSLVersion converts a config value such as "es300" or "330".
func ParseGLSLVersion(s string) (glsl.Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "es300", "es3", "webgl2":
		return glsl.VersionES300, nil
	case "es310":
		return glsl.VersionES310, nil
	case "es320":
		return glsl.VersionES320, nil
	case "330":
		return glsl.Version330, nil
	case "400":
		return glsl.Version400, nil
	case "410":
		return glsl.Version410, nil
	case "420":
		return glsl.Version420, nil
	case "430":
		return glsl.Version430, nil
	case "450":
		return glsl.Version450, nil
	case "460":
		return glsl.Version460, nil
	default:
		return glsl.Version{}, fmt.Errorf("unsupported GLSL version: %q", s)
	}
}

// NagaBuilder builds materials with the naga compiler: SPIR-V for each stage
// plus GLSL for the browser preview.
type NagaBuilder struct {
	compiler *compiler.Naga
	version  glsl.Version
	now      func() time.Time
}

// NewNagaBuilder creates a builder targeting the given GLSL version.
func NewNagaBuilder(c *compiler.Naga, version glsl.Version) *NagaBuilder {
	return &NagaBuilder{
		compiler: c,
		version:  version,
		now:      time.Now,
	}
}

// Build implements Builder.
func (b *NagaBuilder) Build(ctx context.Context, pair core.SourcePair) (*Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := &Material{
		Pair:  pair,
		Hash:  pair.Hash(),
		Built: b.now(),
	}
	for _, stage := range core.Stages {
		out, err := b.compiler.CompileStage(stage, pair.Get(stage))
		if err != nil {
			return nil, &BuildError{Stage: stage, Err: err}
		}
		src, info, err := glsl.Compile(out.Module, glsl.Options{
			LangVersion:        b.version,
			EntryPoint:         out.EntryPoint,
			ForceHighPrecision: true,
		})
		if err != nil {
			return nil, &BuildError{Stage: stage, Err: err}
		}
		m.Uniforms = append(m.Uniforms, info.TextureSamplerPairs...)
		if stage == core.StageVertex {
			m.VertexSPIRV, m.VertexGLSL = out.SPIRV, src
		} else {
			m.FragmentSPIRV, m.FragmentGLSL = out.SPIRV, src
		}
	}
	return m, nil
}
