package core

import "strings"

// =============================================================================
// DiagnosticKind
// =============================================================================

// DiagnosticKind separates compiler output from synthetic diagnostics
// raised by the preview subsystem.
type DiagnosticKind int

// Diagnostic kinds.
const (
	// KindCompiler is a diagnostic parsed from a compiler log.
	KindCompiler DiagnosticKind = iota
	// KindRender is a material construction failure after a PASS.
	KindRender
	// KindUnavailable means the compiler primitive could not run at all.
	KindUnavailable
)

// String returns the string representation of the kind.
func (k DiagnosticKind) String() string {
	switch k {
	case KindCompiler:
		return "compiler"
	case KindRender:
		return "render"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ParseDiagnosticKind converts a string to a DiagnosticKind value.
// Returns KindCompiler and false if the string is not recognized.
func ParseDiagnosticKind(s string) (DiagnosticKind, bool) {
	switch strings.ToLower(s) {
	case "compiler":
		return KindCompiler, true
	case "render":
		return KindRender, true
	case "unavailable":
		return KindUnavailable, true
	default:
		return KindCompiler, false
	}
}

// =============================================================================
// StructuredError
// =============================================================================

// StructuredError is one diagnostic attributed to a shader stage.
// Line is 1-based; 0 means the location could not be recovered.
// Column is nil when the log line carried no column.
type StructuredError struct {
	Stage   Stage          `json:"stage"`
	Line    int            `json:"line"`
	Column  *int           `json:"column,omitempty"`
	Message string         `json:"message"`
	Kind    DiagnosticKind `json:"kind"`
}

// HasLocation reports whether the diagnostic points at a source line.
func (e StructuredError) HasLocation() bool {
	return e.Line > 0
}

// =============================================================================
// ErrorReport
// =============================================================================

// ErrorReport is the error state observed by every UI surface.
//
// Detailed and Pretty carry compiler diagnostics of the last applied attempt.
// Runtime carries synthetic diagnostics raised after a PASS (material build
// failures) and is cleared by the next successful build.
type ErrorReport struct {
	Detailed []StructuredError `json:"detailed"`
	Pretty   []string          `json:"pretty"`
	Runtime  []StructuredError `json:"runtime,omitempty"`
}

// Empty reports whether the report carries no compiler diagnostics.
func (r ErrorReport) Empty() bool {
	return len(r.Detailed) == 0 && len(r.Pretty) == 0
}

// ForStage returns the compiler and runtime diagnostics for one stage.
func (r ErrorReport) ForStage(stage Stage) []StructuredError {
	var out []StructuredError
	for _, e := range r.Detailed {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	for _, e := range r.Runtime {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the total number of diagnostics, runtime included.
func (r ErrorReport) Count() int {
	return len(r.Detailed) + len(r.Runtime)
}

// Clone returns a deep copy safe to hand to another goroutine.
func (r ErrorReport) Clone() ErrorReport {
	out := ErrorReport{}
	if r.Detailed != nil {
		out.Detailed = cloneErrors(r.Detailed)
	}
	if r.Pretty != nil {
		out.Pretty = append([]string(nil), r.Pretty...)
	}
	if r.Runtime != nil {
		out.Runtime = cloneErrors(r.Runtime)
	}
	return out
}

func cloneErrors(in []StructuredError) []StructuredError {
	out := make([]StructuredError, len(in))
	for i, e := range in {
		out[i] = e
		if e.Column != nil {
			c := *e.Column
			out[i].Column = &c
		}
	}
	return out
}
