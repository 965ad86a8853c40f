package lsp

import (
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Source names the diagnostics this server publishes.
const Source = "leapshader"

// publishKey identifies a published report. Diagnostics are republished
// only when it changes.
type publishKey struct {
	seq     uint64
	status  core.CompileStatus
	runtime int
}

func keyOf(snap session.Snapshot) publishKey {
	return publishKey{seq: snap.Seq, status: snap.Status, runtime: len(snap.Report.Runtime)}
}

// toDiagnostics converts the stage's entries of report into LSP
// diagnostics positioned in doc. Unlocated errors point at the first line.
func toDiagnostics(doc *Document, report core.ErrorReport) []Diagnostic {
	errs := report.ForStage(doc.Stage)
	out := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		line, col := 0, 0
		if e.HasLocation() {
			line = e.Line - 1
			if line >= len(doc.Lines) {
				line = max(0, len(doc.Lines)-1)
			}
		}
		if e.Column != nil && *e.Column > 0 {
			col = *e.Column - 1
		}

		severity := DiagnosticSeverityError
		if e.Kind == core.KindRender {
			severity = DiagnosticSeverityWarning
		}
		out = append(out, Diagnostic{
			Range:    doc.LineRange(line, col),
			Severity: severity,
			Code:     e.Kind.String(),
			Source:   Source,
			Message:  e.Message,
		})
	}
	return out
}

// diagnosticsAt returns the stage errors reported on a zero-based line.
func diagnosticsAt(stage core.Stage, report core.ErrorReport, line int) []core.StructuredError {
	var out []core.StructuredError
	for _, e := range report.ForStage(stage) {
		if e.Line-1 == line || (!e.HasLocation() && line == 0) {
			out = append(out, e)
		}
	}
	return out
}
