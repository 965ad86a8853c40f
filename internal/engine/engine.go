// Package engine wires the compile session, the preview render loop and the
// compile history into one runnable unit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapshader/internal/compiler"
	"github.com/leapstack-labs/leapshader/internal/config"
	"github.com/leapstack-labs/leapshader/internal/examples"
	"github.com/leapstack-labs/leapshader/internal/pipeline"
	"github.com/leapstack-labs/leapshader/internal/preview"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/internal/state"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Engine owns one live shader session and everything attached to it.
type Engine struct {
	logger  *slog.Logger
	catalog *examples.Catalog
	naga    *compiler.Naga
	store   *state.SQLiteStore
	history *state.History
	session *session.Session
	sync    *preview.Synchronizer
	loop    *preview.Loop

	shadersDir string
	origin     string
	initial    core.SourcePair
}

// Config holds engine configuration.
type Config struct {
	// ShadersDir holds vertex.wgsl and fragment.wgsl; they seed the session.
	ShadersDir string
	// ExamplesDir is an optional project examples directory.
	ExamplesDir string
	// StatePath is the SQLite history database. Empty disables history.
	StatePath string
	Compile   config.CompileConfig
	Preview   config.PreviewConfig
	// Resume seeds the session with the last committed pair from history.
	Resume bool
	// Initial overrides the pair read from disk.
	Initial *core.SourcePair

	// Validator and Builder replace the naga-backed defaults in tests.
	Validator session.Validator
	Builder   preview.Builder
	Clock     clock.Clock
	Logger    *slog.Logger
}

// New builds an engine. Call Run to start the session and the render loop.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	config.ApplyCompileDefaults(&cfg.Compile)
	config.ApplyPreviewDefaults(&cfg.Preview)

	logger.Debug("initializing engine", "shaders_dir", cfg.ShadersDir, "state_path", cfg.StatePath)

	e := &Engine{logger: logger, shadersDir: cfg.ShadersDir}

	catalog, err := examples.Load(cfg.ExamplesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load examples: %w", err)
	}
	e.catalog = catalog

	nagaCfg, err := cfg.Compile.NagaConfig()
	if err != nil {
		return nil, err
	}
	nagaCfg.Logger = logger.With("component", "compiler")
	e.naga = compiler.NewNaga(nagaCfg)

	if cfg.StatePath != "" {
		store := state.NewSQLiteStore(logger)
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		if err := store.InitSchema(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize state schema: %w", err)
		}
		e.store = store
		e.history = state.NewHistory(store, state.DefaultKeepSnapshots, logger)
	}

	if err := e.seed(cfg); err != nil {
		_ = e.Close()
		return nil, err
	}

	validator := cfg.Validator
	if validator == nil {
		validator = pipeline.New(pipeline.Config{
			Compiler: e.naga,
			Logger:   logger.With("component", "pipeline"),
		})
	}

	var recorder session.Recorder
	if e.history != nil {
		recorder = e.history
	}

	e.session = session.New(session.Config{
		Validator:     validator,
		Recorder:      recorder,
		QuietPeriod:   cfg.Compile.QuietPeriod,
		Clock:         cfg.Clock,
		Logger:        logger.With("component", "session"),
		Initial:       e.initial,
		InitialOrigin: e.origin,
	})

	builder := cfg.Builder
	if builder == nil {
		version, err := preview.ParseGLSLVersion(cfg.Preview.GLSLVersion)
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		builder = preview.NewNagaBuilder(e.naga, version)
	}

	e.sync = preview.NewSynchronizer(preview.SynchronizerConfig{
		State:    e.session,
		Reporter: e.session,
		Builder:  builder,
		Logger:   logger.With("component", "preview"),
	})
	e.loop = preview.NewLoop(preview.LoopConfig{
		Synchronizer: e.sync,
		FPS:          cfg.Preview.FPS,
		Clock:        cfg.Clock,
		Logger:       logger.With("component", "render"),
	})

	return e, nil
}

// seed picks the initial pair: explicit, resumed, on disk, or the default
// example, in that order.
func (e *Engine) seed(cfg Config) error {
	if cfg.Initial != nil {
		e.initial, e.origin = *cfg.Initial, session.OriginStartup
		return nil
	}

	if cfg.Resume && e.history != nil {
		pair, ok, err := e.history.Resume()
		if err != nil {
			return fmt.Errorf("failed to resume: %w", err)
		}
		if ok {
			e.logger.Info("resumed last committed shaders")
			e.initial, e.origin = pair, session.OriginResume
			return nil
		}
	}

	if cfg.ShadersDir != "" {
		pair, err := ReadShaders(cfg.ShadersDir)
		switch {
		case err == nil:
			e.initial, e.origin = pair, session.OriginStartup
			return nil
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("failed to read shaders: %w", err)
		}
	}

	pair, err := e.catalog.Default()
	if err != nil {
		return fmt.Errorf("no shaders found and no default example: %w", err)
	}
	e.initial, e.origin = pair, session.OriginExample
	return nil
}

// Run runs the session loop and the render loop until ctx is canceled or
// either fails.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.session.Run(ctx)
	})
	g.Go(func() error {
		return e.loop.Run(ctx)
	})
	return g.Wait()
}

// LoadExample loads a named example into the session. The example still
// has to validate before it becomes the committed pair.
func (e *Engine) LoadExample(name string) error {
	pair, err := e.catalog.Source(name)
	if err != nil {
		return err
	}
	e.logger.Info("loading example", "name", name)
	return e.session.Load(pair, session.OriginExample)
}

// Initial returns the pair the session started with and its origin.
func (e *Engine) Initial() (core.SourcePair, string) {
	return e.initial, e.origin
}

// ShadersDir returns the directory the session mirrors.
func (e *Engine) ShadersDir() string { return e.shadersDir }

// Session returns the compile session.
func (e *Engine) Session() *session.Session { return e.session }

// Loop returns the preview render loop.
func (e *Engine) Loop() *preview.Loop { return e.loop }

// Catalog returns the examples catalog.
func (e *Engine) Catalog() *examples.Catalog { return e.catalog }

// Compiler returns the naga compiler.
func (e *Engine) Compiler() *compiler.Naga { return e.naga }

// History returns the compile history, or nil when disabled.
func (e *Engine) History() *state.History { return e.history }

// GetStateStore returns the history store, or nil when disabled.
func (e *Engine) GetStateStore() core.Store {
	if e.store == nil {
		return nil
	}
	return e.store
}

// Close releases the history store.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Check validates pair once with a fresh naga compiler.
func Check(ctx context.Context, cfg config.CompileConfig, pair core.SourcePair, logger *slog.Logger) (pipeline.Outcome, error) {
	config.ApplyCompileDefaults(&cfg)
	nagaCfg, err := cfg.NagaConfig()
	if err != nil {
		return pipeline.Outcome{}, err
	}
	nagaCfg.Logger = logger
	p := pipeline.New(pipeline.Config{Compiler: compiler.NewNaga(nagaCfg), Logger: logger})
	return p.Validate(ctx, pair), nil
}
