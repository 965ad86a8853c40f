package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapshader/internal/cli/config"
	"github.com/leapstack-labs/leapshader/internal/ui"
)

// SessionSecretEnv names the variable holding the cookie signing secret.
const SessionSecretEnv = "LEAPSHADER_SESSION_SECRET"

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
	Resume    bool
	Dev       bool
	Example   string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the live shader workbench",
		Long: `Start a local web server with a live WGSL editor and preview.

Edits are validated after a short quiet period. The preview keeps showing
the last shaders that passed while the current draft has errors.

The workbench provides:
- Vertex and fragment editor tabs with per-stage diagnostics
- A WebGL preview with frame counter and time uniform
- An examples menu and preview settings
- Compile history`,
		Example: `  # Start on the default port
  leapshader serve

  # Start on a custom port without opening a browser
  leapshader serve --port 3000 --no-browser

  # Continue from the last shaders that passed
  leapshader serve --resume

  # Start from an example
  leapshader serve --example circle`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, fmt.Sprintf("Port to serve on (default: %d)", config.DefaultUIPort))
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Feed edits of the shader files into the session")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Start from the last committed shaders in history")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Enable hot reload endpoints")
	cmd.Flags().StringVar(&opts.Example, "example", "", "Load a named example after startup")
	_ = cmd.RegisterFlagCompletionFunc("example", completeExamples)

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, EngineOptions{Resume: opts.Resume})
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer
	uiCfg := cmdCtx.Cfg.GetUIConfig()

	// CLI flags override config file
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	autoOpen := uiCfg.AutoOpen && !opts.NoBrowser
	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	if opts.Example != "" {
		if _, err := eng.Catalog().Get(opts.Example); err != nil {
			return err
		}
	}

	server := ui.NewServer(ui.Config{
		Engine:        eng,
		Port:          port,
		Watch:         watch,
		SessionSecret: os.Getenv(SessionSecretEnv),
		Dev:           opts.Dev,
		Logger:        cmdCtx.Logger,
	})

	_, origin := eng.Initial()
	url := fmt.Sprintf("http://localhost:%d", port)
	r.Printf("Starting workbench on %s (shaders from %s)\n", url, origin)
	r.Muted("Press Ctrl+C to stop")

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return eng.Run(ctx)
	})
	g.Go(func() error {
		return server.Serve(ctx)
	})
	if opts.Example != "" {
		g.Go(func() error {
			return eng.LoadExample(opts.Example)
		})
	}
	if autoOpen {
		go openBrowser(ctx, url)
	}

	return g.Wait()
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(ctx context.Context, url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "linux":
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}

	_ = cmd.Start()
}
