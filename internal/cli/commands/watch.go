package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapshader/internal/cli/output"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/internal/tui"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Plain  bool
	Resume bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Validate the shader files on every save",
		Long: `Watch the shaders directory and validate the pair whenever a file changes.

On a terminal a live dashboard shows the compile status, per-stage
diagnostics and the preview frame counter. With --plain, or when output is
not a terminal, each terminal status is printed as a line instead.`,
		Example: `  # Live dashboard
  leapshader watch

  # Log lines, e.g. in a second pane
  leapshader watch --plain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Print status lines instead of the dashboard")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Start from the last committed shaders in history")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, EngineOptions{Resume: opts.Resume})
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer
	plain := opts.Plain || !r.IsTTY()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return eng.Run(ctx)
	})
	g.Go(func() error {
		return eng.Watch(ctx, nil)
	})
	g.Go(func() error {
		// Quitting the dashboard ends the command.
		defer cancel()
		if plain {
			return followPlain(ctx, eng, r)
		}
		return tui.Run(ctx, eng.Session(), tui.Options{
			Title:  "leapshader watch",
			Frames: eng.Loop().Frame,
			Output: cmd.OutOrStdout(),
		})
	})

	return g.Wait()
}

// followPlain prints one line per applied terminal outcome until ctx ends.
func followPlain(ctx context.Context, eng *engine.Engine, r *output.Renderer) error {
	sub := eng.Session().Subscribe()
	defer eng.Session().Unsubscribe(sub)

	r.Muted(fmt.Sprintf("Watching %s (Ctrl+C to stop)", eng.ShadersDir()))

	var last session.Snapshot
	for {
		snap, err := eng.Session().Snapshot()
		if err != nil {
			return nil
		}
		if printTransition(r, last, snap) {
			last = snap
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub:
			if !ok {
				return nil
			}
		}
	}
}

// printTransition prints snap when it carries a terminal outcome not yet
// printed, and reports whether it did.
func printTransition(r *output.Renderer, last, snap session.Snapshot) bool {
	if !snap.Status.Terminal() {
		return false
	}
	if snap.Applied.Equal(last.Applied) && snap.Status == last.Status &&
		snap.Report.Count() == last.Report.Count() {
		return false
	}

	stamp := snap.Applied.Local().Format("15:04:05")
	switch snap.Status {
	case core.CompileStatusPass:
		if len(snap.Report.Runtime) > 0 {
			r.StatusLine(stamp, "warning", fmt.Sprintf("PASS with %d render errors", len(snap.Report.Runtime)))
		} else {
			r.StatusLine(stamp, "success", "PASS "+shortHash(snap.Committed.Hash()))
		}
	case core.CompileStatusFail:
		r.StatusLine(stamp, "error", fmt.Sprintf("FAIL %d diagnostics", snap.Report.Count()))
	}
	for _, line := range prettyReport(snap.Report) {
		r.Println("      " + line)
	}
	return true
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
