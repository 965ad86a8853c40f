package examples

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/compiler"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()

	assert.Equal(t, []string{"gradient", "circle", "stripes", "waves"}, c.Names())
	assert.Equal(t, "gradient", c.DefaultName())

	pair, err := c.Default()
	require.NoError(t, err)
	assert.Contains(t, pair.Vertex, "@vertex")
	assert.Contains(t, pair.Fragment, "@fragment")

	for _, ex := range c.List() {
		assert.True(t, ex.Builtin)
		assert.NotEmpty(t, ex.Title)
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := Builtin().Get("teapot")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Builtin().Source("teapot")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_ProjectOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ManifestName, `
default: mine
examples:
  - name: mine
    vertex: a.vert.wgsl
    fragment: a.frag.wgsl
  - name: circle
    title: My Circle
    vertex: a.vert.wgsl
    fragment: a.frag.wgsl
`)
	writeFile(t, dir, "a.vert.wgsl", "// vertex")
	writeFile(t, dir, "a.frag.wgsl", "// fragment")

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"gradient", "circle", "stripes", "waves", "mine"}, c.Names())
	assert.Equal(t, "mine", c.DefaultName())

	ex, err := c.Get("circle")
	require.NoError(t, err)
	assert.Equal(t, "My Circle", ex.Title)
	assert.False(t, ex.Builtin)

	mine, err := c.Get("mine")
	require.NoError(t, err)
	assert.Equal(t, "mine", mine.Title, "title defaults to name")

	pair, err := c.Source("circle")
	require.NoError(t, err)
	assert.Equal(t, "// vertex", pair.Vertex)
}

func TestLoad_MissingDir(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Len(t, c.Names(), 4)
}

func TestLoad_InvalidManifest(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{"bad yaml", "examples: [", "parse examples.yaml"},
		{"missing name", "examples:\n  - vertex: a\n    fragment: b\n", "missing name"},
		{"missing stage", "examples:\n  - name: x\n    vertex: a\n", "vertex and fragment are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, ManifestName, tt.manifest)

			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuiltinExamplesCompile(t *testing.T) {
	c := Builtin()
	n := compiler.NewNaga(compiler.NagaConfig{})

	for _, name := range c.Names() {
		t.Run(name, func(t *testing.T) {
			pair, err := c.Source(name)
			require.NoError(t, err)

			res, err := n.AttemptBuild(context.Background(), pair.Vertex, pair.Fragment)
			require.NoError(t, err)
			if !assert.True(t, res.Passed) {
				if res.VertexLog != nil {
					t.Log(*res.VertexLog)
				}
				if res.FragmentLog != nil {
					t.Log(*res.FragmentLog)
				}
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
