// Package pipeline classifies a compiler attempt into a PASS or FAIL outcome
// with its error report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapshader/internal/compiler"
	"github.com/leapstack-labs/leapshader/internal/diagnostic"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Outcome is the classified result of validating one SourcePair.
type Outcome struct {
	Status core.CompileStatus
	// Pair is the validated source; it becomes the committed pair on PASS.
	Pair   core.SourcePair
	Report core.ErrorReport
	// Unavailable is set when the compiler primitive could not run.
	Unavailable bool
	Duration    time.Duration
}

// Passed reports whether the outcome is PASS.
func (o Outcome) Passed() bool {
	return o.Status == core.CompileStatusPass
}

// Config holds configuration for the pipeline.
type Config struct {
	Compiler compiler.Compiler
	Logger   *slog.Logger
}

// Pipeline validates source pairs through a compiler primitive.
type Pipeline struct {
	compiler compiler.Compiler
	logger   *slog.Logger
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		compiler: cfg.Compiler,
		logger:   logger,
	}
}

// Validate runs the compiler on pair and classifies the result by the
// compiler's own pass signal. It never returns an error: an unavailable or
// panicking compiler yields a FAIL outcome with a single diagnostic.
func (p *Pipeline) Validate(ctx context.Context, pair core.SourcePair) Outcome {
	start := time.Now()
	res, err := p.attempt(ctx, pair)
	out := classify(pair, res, err)
	out.Duration = time.Since(start)

	if out.Unavailable {
		p.logger.Warn("compiler unavailable", "error", err)
	} else {
		p.logger.Debug("validated",
			"status", out.Status,
			"diagnostics", len(out.Report.Detailed),
			"duration", out.Duration)
	}
	return out
}

func (p *Pipeline) attempt(ctx context.Context, pair core.SourcePair) (res compiler.Result, err error) {
	if p.compiler == nil {
		return compiler.Result{}, fmt.Errorf("%w: no compiler configured", compiler.ErrUnavailable)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: compiler panicked: %v", compiler.ErrUnavailable, r)
		}
	}()
	return p.compiler.AttemptBuild(ctx, pair.Vertex, pair.Fragment)
}

// classify is a pure function of the attempt result.
func classify(pair core.SourcePair, res compiler.Result, err error) Outcome {
	if err != nil {
		if !errors.Is(err, compiler.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", compiler.ErrUnavailable, err)
		}
		return Outcome{
			Status:      core.CompileStatusFail,
			Pair:        pair,
			Report:      diagnostic.UnavailableReport(err),
			Unavailable: true,
		}
	}
	if res.Passed {
		return Outcome{
			Status: core.CompileStatusPass,
			Pair:   pair,
			Report: core.ErrorReport{},
		}
	}
	return Outcome{
		Status: core.CompileStatusFail,
		Pair:   pair,
		Report: diagnostic.FailureReport(res.VertexLog, res.FragmentLog),
	}
}
