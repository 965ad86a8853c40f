package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

func stageDoc(stage core.Stage, content string) *Document {
	return &Document{Content: content, Stage: stage, HasStage: true, Lines: computeLineOffsets(content)}
}

func TestToDiagnostics(t *testing.T) {
	col := 5
	report := core.ErrorReport{
		Detailed: []core.StructuredError{
			{Stage: core.StageFragment, Line: 2, Column: &col, Message: "expected ')'"},
			{Stage: core.StageFragment, Message: "no location"},
			{Stage: core.StageFragment, Line: 99, Message: "past the end"},
			{Stage: core.StageVertex, Line: 1, Message: "other stage"},
		},
		Runtime: []core.StructuredError{
			{Stage: core.StageFragment, Message: "browser preview: link failed", Kind: core.KindRender},
		},
	}
	doc := stageDoc(core.StageFragment, "@fragment\nfn fs_main( {\n}")

	diags := toDiagnostics(doc, report)
	require.Len(t, diags, 4)

	assert.Equal(t, Position{Line: 1, Character: 4}, diags[0].Range.Start)
	assert.Equal(t, DiagnosticSeverityError, diags[0].Severity)
	assert.Equal(t, "expected ')'", diags[0].Message)

	assert.Equal(t, uint32(0), diags[1].Range.Start.Line)
	assert.Equal(t, uint32(2), diags[2].Range.Start.Line)

	assert.Equal(t, DiagnosticSeverityWarning, diags[3].Severity)
	assert.Equal(t, "render", diags[3].Code)
}

func TestDiagnosticsAt(t *testing.T) {
	report := core.ErrorReport{Detailed: []core.StructuredError{
		{Stage: core.StageVertex, Line: 3, Message: "a"},
		{Stage: core.StageVertex, Message: "b"},
		{Stage: core.StageFragment, Line: 3, Message: "c"},
	}}
	assert.Len(t, diagnosticsAt(core.StageVertex, report, 2), 1)
	assert.Len(t, diagnosticsAt(core.StageVertex, report, 0), 1)
	assert.Empty(t, diagnosticsAt(core.StageVertex, report, 5))
}

func TestKeyOf(t *testing.T) {
	a := keyOf(session.Snapshot{Seq: 1, Status: core.CompileStatusFail})
	b := keyOf(session.Snapshot{Seq: 1, Status: core.CompileStatusFail, Report: core.ErrorReport{
		Runtime: []core.StructuredError{{Message: "x"}},
	}})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, keyOf(session.Snapshot{Seq: 1, Status: core.CompileStatusFail}))
}
