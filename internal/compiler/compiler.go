// Package compiler wraps the shader compiler primitive: submit a vertex and a
// fragment source, get a pass/fail signal and one log per stage.
package compiler

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the primitive cannot run at all.
var ErrUnavailable = errors.New("shader compiler unavailable")

// Result is the outcome of one build attempt.
// A nil log means the stage compiled without output.
type Result struct {
	Passed      bool
	VertexLog   *string
	FragmentLog *string
}

// Compiler attempts to build a complete program from two stages.
// A non-nil error means no attempt could be made; compile failures are
// reported through Result instead.
type Compiler interface {
	AttemptBuild(ctx context.Context, vertex, fragment string) (Result, error)
}

// Func adapts an ordinary function to the Compiler interface.
type Func func(ctx context.Context, vertex, fragment string) (Result, error)

// AttemptBuild calls f(ctx, vertex, fragment).
func (f Func) AttemptBuild(ctx context.Context, vertex, fragment string) (Result, error) {
	return f(ctx, vertex, fragment)
}
