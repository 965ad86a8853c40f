package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/naga/spirv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

const validVertex = `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`

const validFragment = `
@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`

const brokenFragment = `
@fragment
fn fs_main( {
    return vec4<f32>(1.0);
}
`

func newTestNaga(t *testing.T) *Naga {
	t.Helper()
	return NewNaga(NagaConfig{})
}

func TestNaga_AttemptBuild_Pass(t *testing.T) {
	n := newTestNaga(t)

	res, err := n.AttemptBuild(context.Background(), validVertex, validFragment)
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Nil(t, res.VertexLog)
	assert.Nil(t, res.FragmentLog)
}

func TestNaga_AttemptBuild_FailIsolatesStage(t *testing.T) {
	n := newTestNaga(t)

	res, err := n.AttemptBuild(context.Background(), validVertex, brokenFragment)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Nil(t, res.VertexLog)
	require.NotNil(t, res.FragmentLog)
	assert.NotEmpty(t, *res.FragmentLog)
}

func TestNaga_AttemptBuild_MissingEntryPoint(t *testing.T) {
	n := newTestNaga(t)

	// a fragment entry point submitted as the vertex stage
	res, err := n.AttemptBuild(context.Background(), validFragment, validFragment)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	require.NotNil(t, res.VertexLog)
	assert.Contains(t, *res.VertexLog, "no @vertex entry point")
	assert.Nil(t, res.FragmentLog)
}

func TestNaga_AttemptBuild_Idempotent(t *testing.T) {
	n := newTestNaga(t)

	a, err := n.AttemptBuild(context.Background(), brokenFragment, brokenFragment)
	require.NoError(t, err)
	b, err := n.AttemptBuild(context.Background(), brokenFragment, brokenFragment)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNaga_AttemptBuild_CanceledContext(t *testing.T) {
	n := newTestNaga(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.AttemptBuild(ctx, validVertex, validFragment)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNaga_CompileStage(t *testing.T) {
	n := newTestNaga(t)

	out, err := n.CompileStage(core.StageVertex, validVertex)
	require.NoError(t, err)
	require.NotEmpty(t, out.SPIRV)
	assert.Equal(t, uint32(0x07230203), out.SPIRV[0], "SPIR-V magic")
	assert.Equal(t, "vs_main", out.EntryPoint)
	assert.NotNil(t, out.Module)
}

func TestParseSPIRVVersion(t *testing.T) {
	v, err := ParseSPIRVVersion("1.5")
	require.NoError(t, err)
	assert.Equal(t, spirv.Version1_5, v)

	v, err = ParseSPIRVVersion("")
	require.NoError(t, err)
	assert.Equal(t, spirv.Version1_3, v)

	_, err = ParseSPIRVVersion("2.0")
	assert.Error(t, err)
}

func TestWords(t *testing.T) {
	assert.Equal(t, []uint32{0x07230203, 0x00010300}, Words([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x03, 0x01, 0x00}))
	assert.Empty(t, Words([]byte{1, 2, 3}))
}

func TestErrorLines(t *testing.T) {
	joined := errors.Join(errors.New("1:1: a"), errors.New("2:2: b"))
	assert.Equal(t, []string{"1:1: a", "2:2: b"}, errorLines(joined))
	assert.Equal(t, []string{"x", "y"}, errorLines(errors.New("x\ny")))
	assert.Equal(t, []string{"p", "q"}, errorLines(stageErrors{errors.New("p"), errors.New("q")}))
}

func TestFunc(t *testing.T) {
	var called bool
	c := Func(func(_ context.Context, v, f string) (Result, error) {
		called = true
		return Result{Passed: v == f}, nil
	})

	res, err := c.AttemptBuild(context.Background(), "a", "a")
	require.NoError(t, err)
	assert.True(t, called)
	assert.True(t, res.Passed)
}
