package diagnostic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

func ptr(s string) *string { return &s }

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantLn  int
		wantCol *int
		wantMsg string
	}{
		{
			name:    "parser format",
			line:    "parse error: line 3, column 7: expected ';'",
			wantLn:  3,
			wantCol: intp(7),
			wantMsg: "expected ';'",
		},
		{
			name:    "lowering format",
			line:    "12:4: unknown identifier 'colr'",
			wantLn:  12,
			wantCol: intp(4),
			wantMsg: "unknown identifier 'colr'",
		},
		{
			name:    "driver format has no column",
			line:    "ERROR: 0:9: 'x' : undeclared identifier",
			wantLn:  9,
			wantMsg: "'x' : undeclared identifier",
		},
		{
			name:    "unparseable line kept verbatim",
			line:    "in function main, expression 4: type mismatch",
			wantMsg: "in function main, expression 4: type mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(core.StageFragment, tt.line)
			assert.Equal(t, core.StageFragment, got.Stage)
			assert.Equal(t, core.KindCompiler, got.Kind)
			assert.Equal(t, tt.wantLn, got.Line)
			assert.Equal(t, tt.wantCol, got.Column)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func intp(n int) *int { return &n }

func TestParse_SkipsBlankLines(t *testing.T) {
	got := Parse(core.StageVertex, "1:1: first\n\n   \r\n2:5: second\n")
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Message)
	assert.Equal(t, 2, got[1].Line)
}

func TestPretty(t *testing.T) {
	col := 3
	assert.Equal(t, "Vertex 4:3: bad", Pretty(core.StructuredError{Stage: core.StageVertex, Line: 4, Column: &col, Message: "bad"}))
	assert.Equal(t, "Fragment 4: bad", Pretty(core.StructuredError{Stage: core.StageFragment, Line: 4, Message: "bad"}))
	assert.Equal(t, "Fragment: bad", Pretty(core.StructuredError{Stage: core.StageFragment, Message: "bad"}))
	assert.Equal(t, "Fragment [render]: bad", Pretty(core.StructuredError{Stage: core.StageFragment, Message: "bad", Kind: core.KindRender}))
}

func TestFailureReport(t *testing.T) {
	t.Run("per stage entries", func(t *testing.T) {
		r := FailureReport(nil, ptr("line 2, column 1: unexpected token"))
		require.Len(t, r.Detailed, 1)
		assert.Equal(t, core.StageFragment, r.Detailed[0].Stage)
		assert.Equal(t, []string{"Fragment 2:1: unexpected token"}, r.Pretty)
	})

	t.Run("empty logs still yield a diagnostic", func(t *testing.T) {
		r := FailureReport(ptr(""), nil)
		require.Len(t, r.Detailed, 1)
		assert.Equal(t, FallbackMessage, r.Detailed[0].Message)
		assert.Len(t, r.Pretty, 1)
	})

	t.Run("deterministic", func(t *testing.T) {
		a := FailureReport(ptr("1:1: x"), ptr("2:2: y"))
		b := FailureReport(ptr("1:1: x"), ptr("2:2: y"))
		assert.Equal(t, a, b)
	})
}

func TestUnavailableReport(t *testing.T) {
	r := UnavailableReport(errors.New("no device"))
	require.Len(t, r.Detailed, 1)
	assert.Equal(t, core.KindUnavailable, r.Detailed[0].Kind)
	assert.Contains(t, r.Pretty[0], "no device")
}

func TestRenderError(t *testing.T) {
	e := RenderError(core.StageFragment, errors.New("link failed"))
	assert.Equal(t, core.KindRender, e.Kind)
	assert.Contains(t, e.Message, "link failed")
}
