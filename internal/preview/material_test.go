package preview

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/naga/glsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/compiler"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

var nagaPair = core.SourcePair{
	Vertex: `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`,
	Fragment: `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.5, 0.25, 1.0);
}
`,
}

func TestNagaBuilder_Build(t *testing.T) {
	b := NewNagaBuilder(compiler.NewNaga(compiler.NagaConfig{}), glsl.VersionES300)

	m, err := b.Build(context.Background(), nagaPair)
	require.NoError(t, err)

	assert.Equal(t, nagaPair, m.Pair)
	assert.Equal(t, nagaPair.Hash(), m.Hash)
	assert.NotEmpty(t, m.VertexSPIRV)
	assert.NotEmpty(t, m.FragmentSPIRV)
	assert.Contains(t, m.VertexGLSL, "#version 300 es")
	assert.Contains(t, m.FragmentGLSL, "#version 300 es")
	assert.False(t, m.Built.IsZero())
}

func TestNagaBuilder_BuildErrorNamesStage(t *testing.T) {
	b := NewNagaBuilder(compiler.NewNaga(compiler.NagaConfig{}), glsl.VersionES300)

	_, err := b.Build(context.Background(), nagaPair.With(core.StageFragment, "fn ("))
	require.Error(t, err)

	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, core.StageFragment, be.Stage)
	assert.Contains(t, err.Error(), "fragment stage")
}

func TestParseGLSLVersion(t *testing.T) {
	tests := []struct {
		in   string
		want glsl.Version
		ok   bool
	}{
		{"", glsl.VersionES300, true},
		{"ES300", glsl.VersionES300, true},
		{"webgl2", glsl.VersionES300, true},
		{"330", glsl.Version330, true},
		{"450", glsl.Version450, true},
		{"es100", glsl.Version{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGLSLVersion(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
