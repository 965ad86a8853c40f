package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		input string
		want  Stage
		ok    bool
	}{
		{"vertex", StageVertex, true},
		{"VERT", StageVertex, true},
		{"fragment", StageFragment, true},
		{" fs ", StageFragment, true},
		{"compute", StageVertex, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseStage(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStage_TextRoundTrip(t *testing.T) {
	text, err := StageFragment.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "fragment", string(text))

	var s Stage
	assert.NoError(t, s.UnmarshalText([]byte("vertex")))
	assert.Equal(t, StageVertex, s)
	assert.Error(t, s.UnmarshalText([]byte("geometry")))
}

func TestSourcePair_WithAndEqual(t *testing.T) {
	p := SourcePair{Vertex: "v", Fragment: "f"}
	q := p.With(StageFragment, "f2")

	assert.Equal(t, "f", p.Fragment, "With must not mutate the receiver")
	assert.Equal(t, "f2", q.Get(StageFragment))
	assert.Equal(t, "v", q.Get(StageVertex))
	assert.NotEqual(t, p, q)
	assert.Equal(t, p, q.With(StageFragment, "f"))
}

func TestSourcePair_Hash(t *testing.T) {
	a := SourcePair{Vertex: "ab", Fragment: "c"}
	b := SourcePair{Vertex: "a", Fragment: "bc"}

	assert.Equal(t, a.Hash(), SourcePair{Vertex: "ab", Fragment: "c"}.Hash())
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 64)
}

func TestErrorReport_ForStage(t *testing.T) {
	col := 4
	r := ErrorReport{
		Detailed: []StructuredError{
			{Stage: StageVertex, Line: 2, Column: &col, Message: "a"},
			{Stage: StageFragment, Line: 1, Message: "b"},
		},
		Pretty:  []string{"a", "b"},
		Runtime: []StructuredError{{Stage: StageFragment, Message: "c", Kind: KindRender}},
	}

	assert.Len(t, r.ForStage(StageVertex), 1)
	assert.Len(t, r.ForStage(StageFragment), 2)
	assert.Equal(t, 3, r.Count())
	assert.False(t, r.Empty())
	assert.True(t, ErrorReport{Runtime: r.Runtime}.Empty())
}

func TestErrorReport_CloneIsDeep(t *testing.T) {
	col := 7
	r := ErrorReport{Detailed: []StructuredError{{Column: &col}}, Pretty: []string{"x"}}
	c := r.Clone()

	*c.Detailed[0].Column = 9
	c.Pretty[0] = "y"

	assert.Equal(t, 7, *r.Detailed[0].Column)
	assert.Equal(t, "x", r.Pretty[0])
}

func TestCompileStatus_Terminal(t *testing.T) {
	assert.False(t, CompileStatusCompiling.Terminal())
	assert.True(t, CompileStatusPass.Terminal())
	assert.True(t, CompileStatusFail.Terminal())
}
