package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapshader/internal/compiler"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// BrokenMarker makes ScriptedCompiler fail any stage whose source contains it.
const BrokenMarker = "@broken"

// ScriptedCompiler is a compiler.Compiler double. By default a stage fails
// when its source contains BrokenMarker; a held compiler blocks every call
// until it is released.
type ScriptedCompiler struct {
	mu      sync.Mutex
	calls   []core.SourcePair
	err     error
	panics  bool
	hold    bool
	gates   []chan struct{}
	started chan int
}

// NewScriptedCompiler returns a compiler that answers immediately.
func NewScriptedCompiler() *ScriptedCompiler {
	return &ScriptedCompiler{started: make(chan int, 64)}
}

// Hold makes subsequent calls block until Release is called with their index.
func (c *ScriptedCompiler) Hold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hold = true
}

// Release unblocks the call with the given zero-based index.
func (c *ScriptedCompiler) Release(i int) {
	c.mu.Lock()
	gate := c.gates[i]
	c.mu.Unlock()
	close(gate)
}

// Started receives the index of each call as it begins.
func (c *ScriptedCompiler) Started() <-chan int {
	return c.started
}

// FailWith makes every call return err as if the primitive were unavailable.
// A nil err restores normal behaviour.
func (c *ScriptedCompiler) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Panic makes every call panic.
func (c *ScriptedCompiler) Panic(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panics = on
}

// Calls returns the pairs submitted so far, in call order.
func (c *ScriptedCompiler) Calls() []core.SourcePair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.SourcePair(nil), c.calls...)
}

// CallCount returns the number of calls made so far.
func (c *ScriptedCompiler) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// AttemptBuild implements compiler.Compiler.
func (c *ScriptedCompiler) AttemptBuild(ctx context.Context, vertex, fragment string) (compiler.Result, error) {
	c.mu.Lock()
	idx := len(c.calls)
	c.calls = append(c.calls, core.SourcePair{Vertex: vertex, Fragment: fragment})
	gate := make(chan struct{})
	if !c.hold {
		close(gate)
	}
	c.gates = append(c.gates, gate)
	err, panics := c.err, c.panics
	c.mu.Unlock()

	select {
	case c.started <- idx:
	default:
	}

	select {
	case <-gate:
	case <-ctx.Done():
		return compiler.Result{}, ctx.Err()
	}

	if panics {
		panic("scripted compiler panic")
	}
	if err != nil {
		return compiler.Result{}, err
	}
	return Respond(vertex, fragment), nil
}

// Respond is the default scripted answer for a pair.
func Respond(vertex, fragment string) compiler.Result {
	res := compiler.Result{Passed: true}
	if strings.Contains(vertex, BrokenMarker) {
		log := "line 1, column 1: vertex stage marked broken"
		res.VertexLog = &log
		res.Passed = false
	}
	if strings.Contains(fragment, BrokenMarker) {
		log := "line 1, column 1: fragment stage marked broken"
		res.FragmentLog = &log
		res.Passed = false
	}
	return res
}
