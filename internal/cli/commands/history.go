package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapshader/internal/cli/output"
	"github.com/leapstack-labs/leapshader/internal/state"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent compile attempts",
		Long: `Show the compile attempts recorded by serve and watch, newest first.

Only attempts that were applied are recorded; attempts superseded by a newer
edit are not.`,
		Example: `  # Show the last 20 attempts
  leapshader history

  # Show more
  leapshader history --limit 100 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of attempts to show")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer
	statePath := cmdCtx.Cfg.StatePath

	if statePath == "" {
		return errors.New("history is disabled (state_path is empty)")
	}
	if _, err := os.Stat(statePath); errors.Is(err, fs.ErrNotExist) {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(newHistoryOutput(nil))
		}
		r.Muted("No compile history yet. Run 'leapshader serve' to start a session.")
		return nil
	}

	store := state.NewSQLiteStore(cmdCtx.Logger)
	if err := store.Open(statePath); err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize state schema: %w", err)
	}

	attempts, err := store.ListAttempts(opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list attempts: %w", err)
	}
	return renderHistory(r, attempts)
}

func newHistoryOutput(attempts []*core.CompileAttempt) output.HistoryOutput {
	out := output.HistoryOutput{Attempts: make([]output.AttemptInfo, 0, len(attempts))}
	for _, a := range attempts {
		out.Attempts = append(out.Attempts, output.AttemptInfo{
			ID:          a.ID,
			Seq:         a.Seq,
			Status:      string(a.Status),
			Hash:        a.PairHash,
			Diagnostics: a.Diagnostics,
			Origin:      a.Origin,
			DurationMS:  a.Duration.Milliseconds(),
			CreatedAt:   a.CreatedAt,
		})
		out.Summary.Total++
		switch a.Status {
		case core.CompileStatusPass:
			out.Summary.Passed++
		case core.CompileStatusFail:
			out.Summary.Failed++
		}
	}
	return out
}

func renderHistory(r *output.Renderer, attempts []*core.CompileAttempt) error {
	out := newHistoryOutput(attempts)
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, "Compile History")
	if len(attempts) == 0 {
		r.Muted("No attempts recorded.")
		return nil
	}

	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		hash := a.PairHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		rows = append(rows, []string{
			a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.FormatUint(a.Seq, 10),
			r.Status(a.Status),
			strconv.Itoa(a.Diagnostics),
			r.Title(a.Origin),
			a.Duration.Round(time.Millisecond).String(),
			hash,
		})
	}
	r.Table([]string{"Time", "Seq", "Status", "Diagnostics", "Origin", "Duration", "Hash"}, rows)
	r.Printf("%d attempts: %d passed, %d failed\n", out.Summary.Total, out.Summary.Passed, out.Summary.Failed)
	return nil
}
