// Package diagnostic turns raw compiler logs into the structured and pretty
// halves of an ErrorReport.
package diagnostic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

// FallbackMessage is used when a failing stage produced no log at all.
const FallbackMessage = "compilation failed"

// Location patterns, tried in order. Each captures line, column and message;
// the column group may be empty.
var locationPatterns = []*regexp.Regexp{
	// parser: "line 3, column 7: expected ';'"
	regexp.MustCompile(`line (\d+), column (\d+): (.*)$`),
	// driver style: "ERROR: 0:12: 'x' : undeclared identifier"
	regexp.MustCompile(`^\s*(?:ERROR|WARNING): \d+:(\d+)():\s*(.*)$`),
	// lowering: "3:7: unknown identifier 'foo'"
	regexp.MustCompile(`^(?:.*?\s)?(\d+):(\d+): (.*)$`),
}

// Parse splits a compiler log into one diagnostic per non-empty line.
// Lines without a recoverable location keep Line 0 and the whole line as message.
func Parse(stage core.Stage, log string) []core.StructuredError {
	var out []core.StructuredError
	for _, raw := range strings.Split(log, "\n") {
		line := strings.TrimRight(raw, "\r \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, ParseLine(stage, line))
	}
	return out
}

// ParseLine parses a single log line.
func ParseLine(stage core.Stage, line string) core.StructuredError {
	e := core.StructuredError{
		Stage:   stage,
		Message: strings.TrimSpace(line),
		Kind:    core.KindCompiler,
	}
	for _, re := range locationPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		e.Line = n
		if m[2] != "" {
			if col, err := strconv.Atoi(m[2]); err == nil {
				e.Column = &col
			}
		}
		if msg := strings.TrimSpace(m[3]); msg != "" {
			e.Message = msg
		}
		return e
	}
	return e
}

// Pretty renders a diagnostic for display.
func Pretty(e core.StructuredError) string {
	var sb strings.Builder
	sb.WriteString(e.Stage.String())
	if e.Kind != core.KindCompiler {
		fmt.Fprintf(&sb, " [%s]", e.Kind)
	}
	if e.HasLocation() {
		fmt.Fprintf(&sb, " %d", e.Line)
		if e.Column != nil {
			fmt.Fprintf(&sb, ":%d", *e.Column)
		}
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	return sb.String()
}

// PrettyAll renders every diagnostic in order.
func PrettyAll(errs []core.StructuredError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, Pretty(e))
	}
	return out
}

// FailureReport builds the report for a failed attempt from per-stage logs.
// A nil log means the stage produced no output. The result always carries at
// least one diagnostic.
func FailureReport(vertexLog, fragmentLog *string) core.ErrorReport {
	var detailed []core.StructuredError
	if vertexLog != nil {
		detailed = append(detailed, Parse(core.StageVertex, *vertexLog)...)
	}
	if fragmentLog != nil {
		detailed = append(detailed, Parse(core.StageFragment, *fragmentLog)...)
	}
	if len(detailed) == 0 {
		stage := core.StageVertex
		if vertexLog == nil && fragmentLog != nil {
			stage = core.StageFragment
		}
		detailed = append(detailed, core.StructuredError{
			Stage:   stage,
			Message: FallbackMessage,
			Kind:    core.KindCompiler,
		})
	}
	return core.ErrorReport{
		Detailed: detailed,
		Pretty:   PrettyAll(detailed),
	}
}

// UnavailableReport builds the single-entry report used when the compiler
// primitive could not run.
func UnavailableReport(err error) core.ErrorReport {
	e := core.StructuredError{
		Stage:   core.StageVertex,
		Message: err.Error(),
		Kind:    core.KindUnavailable,
	}
	return core.ErrorReport{
		Detailed: []core.StructuredError{e},
		Pretty:   []string{Pretty(e)},
	}
}

// RenderError builds the synthetic diagnostic for a material build failure.
func RenderError(stage core.Stage, err error) core.StructuredError {
	return core.StructuredError{
		Stage:   stage,
		Message: "preview material build failed: " + err.Error(),
		Kind:    core.KindRender,
	}
}
