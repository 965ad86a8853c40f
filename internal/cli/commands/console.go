package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapshader/internal/cli/output"
	"github.com/leapstack-labs/leapshader/internal/diagnostic"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

const consolePrompt = "leapshader> "

// loadTimeout bounds how long .load waits for the example to validate.
const loadTimeout = 30 * time.Second

// ConsoleOptions holds options for the console command.
type ConsoleOptions struct {
	Resume bool
}

// NewConsoleCommand creates the console command.
func NewConsoleCommand() *cobra.Command {
	opts := &ConsoleOptions{}

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Drive a live session from an interactive prompt",
		Long: `Start a compile session and control it from a prompt.

Edit the shader files in any editor; the console picks up saves, and its
dot-commands inspect the session, load examples and write the committed
pair back to disk.

Type .help at the prompt for the list of commands.`,
		Example: `  # Start a console on the project's shaders
  leapshader console

  # Continue from the last committed pair in history
  leapshader console --resume`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Start from the last committed shaders in history")

	return cmd
}

func runConsole(cmd *cobra.Command, opts *ConsoleOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, EngineOptions{Resume: opts.Resume})
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	c := &console{eng: eng, r: cmdCtx.Renderer}

	var historyFile string
	if cmdCtx.Cfg.StatePath != "" {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "console_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          consolePrompt,
		HistoryFile:     historyFile,
		AutoComplete:    c.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize console: %w", err)
	}
	defer func() { _ = rl.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return eng.Run(ctx)
	})
	if engine.ShadersExist(eng.ShadersDir()) {
		g.Go(func() error {
			return eng.Watch(ctx, nil)
		})
	}

	// A failing engine ends the prompt.
	stop := context.AfterFunc(ctx, func() { _ = rl.Close() })
	defer stop()

	c.r.Printf("LeapShader console (shaders: %s)\n", eng.ShadersDir())
	c.r.Println("Type .help for commands, .quit to exit")
	c.r.Println("")

	g.Go(func() error {
		defer cancel()
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if err != nil {
				return nil
			}
			if c.exec(ctx, line) {
				return nil
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// console executes dot-commands against a running engine.
type console struct {
	eng *engine.Engine
	r   *output.Renderer
}

// exec runs one input line and reports whether the console should exit.
func (c *console) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ".") {
		c.r.Error("Edit the shader files to change the source; type .help for commands")
		return false
	}

	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		printConsoleHelp(c.r.Writer())
	case ".status":
		err = c.status()
	case ".diagnostics", ".diag":
		err = c.diagnostics(args)
	case ".examples":
		err = renderExampleList(c.r, c.eng.Catalog())
	case ".load":
		err = c.load(ctx, args)
	case ".stage":
		err = c.stage(args)
	case ".save":
		err = c.save()
	case ".history":
		err = c.history(args)
	case ".clear":
		c.r.Printf("\033[H\033[2J")
	default:
		err = fmt.Errorf("unknown command: %s (type .help for commands)", command)
	}
	if err != nil {
		c.r.Error(err.Error())
	}
	return false
}

func (c *console) status() error {
	snap, err := c.eng.Session().Snapshot()
	if err != nil {
		return err
	}
	frame := c.eng.Loop().Frame()

	material := "none"
	if frame.Material != nil {
		material = shortHash(frame.Material.Hash)
	}
	c.r.Printf("Status:    %s\n", c.r.Status(snap.Status))
	c.r.Printf("Seq:       %d (%s)\n", snap.Seq, snap.Origin)
	c.r.Printf("Stage:     %s\n", snap.Active)
	c.r.Printf("Load:      %s\n", snap.Load)
	c.r.Printf("Committed: %s\n", shortHash(snap.Committed.Hash()))
	c.r.Printf("Frame:     %d t=%.2fs material %s\n", frame.N, frame.Time.Seconds(), material)
	c.r.Printf("Edits:     %d, dispatched %d, applied %d, discarded %d\n",
		snap.Stats.Edits, snap.Stats.Dispatched, snap.Stats.Applied, snap.Stats.Discarded)
	if n := snap.Report.Count(); n > 0 {
		c.r.Printf("Diagnostics: %d (see .diagnostics)\n", n)
	}
	return nil
}

func (c *console) diagnostics(args []string) error {
	snap, err := c.eng.Session().Snapshot()
	if err != nil {
		return err
	}

	var lines []string
	if len(args) > 0 {
		stage, ok := core.ParseStage(args[0])
		if !ok {
			return fmt.Errorf("unknown stage: %s", args[0])
		}
		for _, e := range snap.Report.ForStage(stage) {
			lines = append(lines, diagnostic.Pretty(e))
		}
	} else {
		lines = prettyReport(snap.Report)
	}

	if len(lines) == 0 {
		c.r.Muted("No diagnostics.")
		return nil
	}
	for _, line := range lines {
		c.r.Println(line)
	}
	return nil
}

func (c *console) load(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: .load <example>")
	}
	sess := c.eng.Session()
	before, err := sess.Snapshot()
	if err != nil {
		return err
	}
	if err := c.eng.LoadExample(args[0]); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	snap, err := sess.WaitTerminal(ctx, before.Seq)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", args[0], err)
	}
	printTransition(c.r, session.Snapshot{}, snap)
	return nil
}

func (c *console) stage(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: .stage <vertex|fragment>")
	}
	stage, ok := core.ParseStage(args[0])
	if !ok {
		return fmt.Errorf("unknown stage: %s", args[0])
	}
	text, err := c.eng.Session().SwitchStage(stage)
	if err != nil {
		return err
	}
	c.r.Printf("Active stage: %s (%d lines)\n", stage, strings.Count(text, "\n")+1)
	return nil
}

// save writes the committed pair to the shaders directory. Only a passing
// pair is written.
func (c *console) save() error {
	snap, err := c.eng.Session().Snapshot()
	if err != nil {
		return err
	}
	if snap.Status != core.CompileStatusPass {
		return fmt.Errorf("cannot save while status is %s", snap.Status)
	}
	if err := engine.WriteShaders(c.eng.ShadersDir(), snap.Committed); err != nil {
		return err
	}
	c.r.Success("Saved to " + c.eng.ShadersDir())
	return nil
}

func (c *console) history(args []string) error {
	store := c.eng.GetStateStore()
	if store == nil {
		return errors.New("history is disabled (state_path is empty)")
	}
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid limit: %s", args[0])
		}
		limit = n
	}
	attempts, err := store.ListAttempts(limit)
	if err != nil {
		return err
	}
	return renderHistory(c.r, attempts)
}

func (c *console) completer() *readline.PrefixCompleter {
	stages := func() []readline.PrefixCompleterInterface {
		return []readline.PrefixCompleterInterface{readline.PcItem("vertex"), readline.PcItem("fragment")}
	}
	exampleNames := func(string) []string {
		return c.eng.Catalog().Names()
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".status"),
		readline.PcItem(".diagnostics", stages()...),
		readline.PcItem(".examples"),
		readline.PcItem(".load", readline.PcItemDynamic(exampleNames)),
		readline.PcItem(".stage", stages()...),
		readline.PcItem(".save"),
		readline.PcItem(".history"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

func printConsoleHelp(w io.Writer) {
	help := `
Commands:
  .help                  Show this help message
  .status                Show the session status and preview frame
  .diagnostics [stage]   Show diagnostics, optionally for one stage
  .examples              List the examples
  .load <name>           Load an example and wait for it to validate
  .stage <stage>         Switch the active stage (vertex, fragment)
  .save                  Write the committed pair to the shaders directory
  .history [n]           Show the last n compile attempts
  .clear                 Clear the screen
  .quit / .exit          Exit the console

Tips:
  - Saved edits to the shader files are validated automatically
  - Tab completion works for commands, stages and example names
`
	_, _ = fmt.Fprintln(w, help)
}
