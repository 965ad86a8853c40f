package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

// NagaConfig holds configuration for the naga-backed compiler.
type NagaConfig struct {
	// SPIRVVersion is the SPIR-V version generated for each stage.
	SPIRVVersion spirv.Version
	// Validate runs the IR validator after lowering.
	Validate bool
	Logger   *slog.Logger
}

// Naga compiles WGSL stages with the pure Go naga compiler.
type Naga struct {
	opts   spirv.Options
	verify bool
	logger *slog.Logger
}

// NewNaga creates a compiler. A zero SPIRVVersion defaults to 1.3.
func NewNaga(cfg NagaConfig) *Naga {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.SPIRVVersion
	if version == (spirv.Version{}) {
		version = spirv.Version1_3
	}
	return &Naga{
		opts:   spirv.Options{Version: version},
		verify: cfg.Validate,
		logger: logger,
	}
}

// ParseSPIRVVersion converts "1.3" style strings to a SPIR-V version.
func ParseSPIRVVersion(s string) (spirv.Version, error) {
	switch strings.TrimSpace(s) {
	case "", "1.3":
		return spirv.Version1_3, nil
	case "1.0":
		return spirv.Version1_0, nil
	case "1.1":
		return spirv.Version1_1, nil
	case "1.2":
		return spirv.Version1_2, nil
	case "1.4":
		return spirv.Version1_4, nil
	case "1.5":
		return spirv.Version1_5, nil
	case "1.6":
		return spirv.Version1_6, nil
	default:
		return spirv.Version{}, fmt.Errorf("unsupported SPIR-V version: %q", s)
	}
}

// AttemptBuild compiles both stages independently. The build passes only
// when both stages produce SPIR-V.
func (n *Naga) AttemptBuild(ctx context.Context, vertex, fragment string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	vlog := n.compileStage(core.StageVertex, vertex)
	flog := n.compileStage(core.StageFragment, fragment)

	n.logger.Debug("build attempted",
		"vertex_ok", vlog == nil,
		"fragment_ok", flog == nil)

	return Result{
		Passed:      vlog == nil && flog == nil,
		VertexLog:   vlog,
		FragmentLog: flog,
	}, nil
}

// compileStage returns nil when the stage compiles, otherwise its log.
func (n *Naga) compileStage(stage core.Stage, source string) *string {
	_, err := n.CompileStage(stage, source)
	if err == nil {
		return nil
	}
	log := strings.Join(errorLines(err), "\n")
	return &log
}

// Module parses and lowers one stage and checks it declares an entry point
// for that stage.
func (n *Naga) Module(stage core.Stage, source string) (*ir.Module, string, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, "", err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, "", err
	}
	if n.verify {
		verrs, err := naga.Validate(module)
		if err != nil {
			return nil, "", err
		}
		if len(verrs) > 0 {
			errs := make([]error, len(verrs))
			for i := range verrs {
				errs[i] = verrs[i]
			}
			return nil, "", stageErrors(errs)
		}
	}
	entry, ok := EntryPoint(module, stage)
	if !ok {
		return nil, "", fmt.Errorf("no @%s entry point declared", strings.ToLower(stage.String()))
	}
	return module, entry, nil
}

// StageOutput is the compiled form of one stage.
type StageOutput struct {
	Module     *ir.Module
	EntryPoint string
	SPIRV      []uint32
}

// CompileStage compiles one stage to SPIR-V words.
func (n *Naga) CompileStage(stage core.Stage, source string) (*StageOutput, error) {
	module, entry, err := n.Module(stage, source)
	if err != nil {
		return nil, err
	}
	out, err := naga.GenerateSPIRV(module, n.opts)
	if err != nil {
		return nil, err
	}
	return &StageOutput{
		Module:     module,
		EntryPoint: entry,
		SPIRV:      Words(out),
	}, nil
}

// EntryPoint returns the name of the first entry point for the stage.
func EntryPoint(module *ir.Module, stage core.Stage) (string, bool) {
	want := ir.StageVertex
	if stage == core.StageFragment {
		want = ir.StageFragment
	}
	for _, ep := range module.EntryPoints {
		if ep.Stage == want {
			return ep.Name, true
		}
	}
	return "", false
}

// Words converts little-endian SPIR-V bytes to 32-bit words.
func Words(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

type stageErrors []error

func (e stageErrors) Error() string {
	lines := make([]string, len(e))
	for i, err := range e {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// errorLines flattens an error into log lines. Error lists returned by the
// lowering pass are slices of errors and are expanded one per line.
func errorLines(err error) []string {
	if list, ok := err.(stageErrors); ok {
		out := make([]string, 0, len(list))
		for _, e := range list {
			out = append(out, e.Error())
		}
		return out
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, errorLines(e)...)
		}
		return out
	}
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice && v.Len() > 0 {
		var out []string
		for i := range v.Len() {
			if e, ok := v.Index(i).Interface().(error); ok && e != nil {
				out = append(out, e.Error())
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return strings.Split(err.Error(), "\n")
}
