package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapshader/internal/cli/output"
	"github.com/leapstack-labs/leapshader/internal/diagnostic"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/examples"
	"github.com/leapstack-labs/leapshader/internal/pipeline"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// ErrCheckFailed is returned when the checked shaders do not validate.
var ErrCheckFailed = errors.New("shader check failed")

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Example string
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check [vertex.wgsl fragment.wgsl]",
		Short: "Validate a vertex and fragment shader pair once",
		Long: `Validate a WGSL shader pair with the same pipeline the workbench uses.

Without arguments the pair is read from the shaders directory. The command
exits with an error when either stage fails, which makes it usable in CI.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Check the project's shaders
  leapshader check

  # Check explicit files
  leapshader check shaders/vertex.wgsl shaders/fragment.wgsl

  # Check a builtin example
  leapshader check --example waves -o json`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or a vertex and a fragment file, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Example, "example", "", "Check a named example instead of files")
	_ = cmd.RegisterFlagCompletionFunc("example", completeExamples)

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cfg := cmdCtx.Cfg

	pair, err := checkSource(cfg.ShadersDir, cfg.ExamplesDir, args, opts)
	if err != nil {
		return err
	}

	out, err := engine.Check(cmd.Context(), cfg.Compile, pair, cmdCtx.Logger)
	if err != nil {
		return err
	}

	if err := renderCheck(cmdCtx.Renderer, out); err != nil {
		return err
	}
	if !out.Passed() {
		return fmt.Errorf("%w: %d diagnostics", ErrCheckFailed, out.Report.Count())
	}
	return nil
}

// checkSource picks the pair to validate from an example, explicit files or
// the shaders directory.
func checkSource(shadersDir, examplesDir string, args []string, opts *CheckOptions) (core.SourcePair, error) {
	if opts.Example != "" {
		if len(args) > 0 {
			return core.SourcePair{}, errors.New("--example cannot be combined with file arguments")
		}
		catalog, err := examples.Load(examplesDir)
		if err != nil {
			return core.SourcePair{}, err
		}
		return catalog.Source(opts.Example)
	}

	if len(args) == 2 {
		vert, err := os.ReadFile(args[0])
		if err != nil {
			return core.SourcePair{}, fmt.Errorf("failed to read vertex shader: %w", err)
		}
		frag, err := os.ReadFile(args[1])
		if err != nil {
			return core.SourcePair{}, fmt.Errorf("failed to read fragment shader: %w", err)
		}
		return core.SourcePair{Vertex: string(vert), Fragment: string(frag)}, nil
	}

	pair, err := engine.ReadShaders(shadersDir)
	if err != nil {
		return core.SourcePair{}, fmt.Errorf("failed to read shaders from %s: %w\nHint: Run 'leapshader init' or pass the files explicitly", shadersDir, err)
	}
	return pair, nil
}

func newCheckOutput(out pipeline.Outcome) output.CheckOutput {
	diags := make([]output.DiagnosticInfo, 0, len(out.Report.Detailed))
	for _, e := range out.Report.Detailed {
		diags = append(diags, diagnosticInfo(e))
	}
	pretty := out.Report.Pretty
	if pretty == nil {
		pretty = []string{}
	}
	return output.CheckOutput{
		Status:      string(out.Status),
		Vertex:      out.Pair.Vertex,
		Fragment:    out.Pair.Fragment,
		Hash:        out.Pair.Hash(),
		DurationMS:  out.Duration.Milliseconds(),
		Diagnostics: diags,
		Pretty:      pretty,
	}
}

func diagnosticInfo(e core.StructuredError) output.DiagnosticInfo {
	return output.DiagnosticInfo{
		Stage:   e.Stage.String(),
		Line:    e.Line,
		Column:  e.Column,
		Message: e.Message,
		Kind:    e.Kind.String(),
	}
}

func renderCheck(r *output.Renderer, out pipeline.Outcome) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(newCheckOutput(out))
	}

	r.Header(1, "Shader Check")
	for _, stage := range []core.Stage{core.StageVertex, core.StageFragment} {
		errs := out.Report.ForStage(stage)
		switch {
		case out.Unavailable:
			r.StatusLine(stage.String(), "warning", "compiler unavailable")
		case len(errs) == 0:
			r.StatusLine(stage.String(), "success", "")
		default:
			r.StatusLine(stage.String(), "error", fmt.Sprintf("%d diagnostics", len(errs)))
		}
	}
	r.Println("")

	if len(out.Report.Detailed) > 0 {
		rows := make([][]string, 0, len(out.Report.Detailed))
		for _, e := range out.Report.Detailed {
			rows = append(rows, diagnosticRow(r, e))
		}
		r.Table([]string{"Stage", "Kind", "Line", "Column", "Message"}, rows)
	}

	r.Printf("Status: %s  (%s)\n", r.Status(out.Status), out.Duration.Round(time.Microsecond))
	return nil
}

func diagnosticRow(r *output.Renderer, e core.StructuredError) []string {
	line, col := "", ""
	if e.HasLocation() {
		line = strconv.Itoa(e.Line)
		if e.Column != nil {
			col = strconv.Itoa(*e.Column)
		}
	}
	return []string{e.Stage.String(), r.Title(e.Kind.String()), line, col, e.Message}
}

// prettyReport renders every diagnostic of a report on its own line.
func prettyReport(report core.ErrorReport) []string {
	lines := diagnostic.PrettyAll(report.Detailed)
	for _, e := range report.Runtime {
		lines = append(lines, diagnostic.Pretty(e))
	}
	return lines
}
