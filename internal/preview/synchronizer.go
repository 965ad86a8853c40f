package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapshader/internal/diagnostic"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// State is the read side of the session the synchronizer may see.
type State interface {
	RenderState() (core.CompileStatus, core.SourcePair, error)
}

// Reporter receives material build diagnostics.
type Reporter interface {
	ReportRender(diag core.StructuredError) error
	ClearRender() error
}

// Synchronizer rebuilds the active material when the committed pair changes
// while the status is PASS. It is driven by one goroutine calling Tick.
type Synchronizer struct {
	state    State
	reporter Reporter
	builder  Builder
	logger   *slog.Logger

	active    *Material
	attempted *core.SourcePair
	builds    int
}

// SynchronizerConfig holds configuration for a Synchronizer.
type SynchronizerConfig struct {
	State    State
	Reporter Reporter
	Builder  Builder
	Logger   *slog.Logger
}

// NewSynchronizer creates a synchronizer with no active material.
func NewSynchronizer(cfg SynchronizerConfig) *Synchronizer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synchronizer{
		state:    cfg.State,
		reporter: cfg.Reporter,
		builder:  cfg.Builder,
		logger:   logger,
	}
}

// Tick runs one frame of synchronization and reports whether a new material
// became active.
func (s *Synchronizer) Tick(ctx context.Context) (bool, error) {
	status, pair, err := s.state.RenderState()
	if err != nil {
		return false, err
	}
	if status != core.CompileStatusPass {
		return false, nil
	}
	if s.attempted != nil && *s.attempted == pair {
		return false, nil
	}
	s.attempted = &pair
	s.builds++

	m, err := s.build(ctx, pair)
	if err != nil {
		stage := core.StageVertex
		var be *BuildError
		if errors.As(err, &be) {
			stage = be.Stage
		}
		s.logger.Warn("material build failed", "hash", pair.Hash()[:12], "error", err)
		if s.reporter != nil {
			if rerr := s.reporter.ReportRender(diagnostic.RenderError(stage, err)); rerr != nil {
				return false, rerr
			}
		}
		return false, nil
	}

	s.active = m
	s.logger.Debug("material built", "hash", m.Hash[:12])
	if s.reporter != nil {
		if err := s.reporter.ClearRender(); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Synchronizer) build(ctx context.Context, pair core.SourcePair) (m *Material, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("builder panicked: %v", r)
		}
	}()
	m, err = s.builder.Build(ctx, pair)
	if err == nil && m == nil {
		err = errors.New("builder returned no material")
	}
	return m, err
}

// Active returns the material currently in use, or nil before the first
// successful build.
func (s *Synchronizer) Active() *Material {
	return s.active
}

// Builds returns the number of build attempts made.
func (s *Synchronizer) Builds() int {
	return s.builds
}
