package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapshader/internal/cli/config"
	"github.com/leapstack-labs/leapshader/internal/cli/output"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// EngineOptions adjusts how a command's engine is seeded.
type EngineOptions struct {
	// Resume seeds from the last committed pair in history.
	Resume bool
	// NoHistory disables the history database.
	NoHistory bool
	// Initial overrides the shaders on disk.
	Initial *core.SourcePair
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, opts EngineOptions) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cmdCtx.Cfg, cmdCtx.Logger, opts)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only read files.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, loading it from the working
// directory when the root command has not done so.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	if cfg, err := config.LoadConfig("", nil); err == nil {
		return cfg
	}

	cwd, _ := os.Getwd()
	return &config.Config{
		ProjectRoot:  cwd,
		ShadersDir:   filepath.Join(cwd, config.DefaultShadersDir),
		ExamplesDir:  filepath.Join(cwd, config.DefaultExamplesDir),
		StatePath:    filepath.Join(cwd, config.DefaultStateFile),
		OutputFormat: config.DefaultOutput,
	}
}

func createEngine(cfg *config.Config, logger *slog.Logger, opts EngineOptions) (*engine.Engine, error) {
	statePath := cfg.StatePath
	if opts.NoHistory {
		statePath = ""
	}
	if err := ensureStateDir(statePath); err != nil {
		return nil, err
	}

	eng, err := engine.New(engine.Config{
		ShadersDir:  cfg.ShadersDir,
		ExamplesDir: cfg.ExamplesDir,
		StatePath:   statePath,
		Compile:     cfg.Compile,
		Preview:     cfg.Preview,
		Resume:      opts.Resume,
		Initial:     opts.Initial,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return eng, nil
}

// ensureStateDir creates the directory holding the history database.
func ensureStateDir(statePath string) error {
	if statePath == "" || statePath == ":memory:" {
		return nil
	}
	stateDir := filepath.Dir(statePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return nil
}
