package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Options configures Run.
type Options struct {
	Title  string
	Frames FrameFunc
	Input  io.Reader
	Output io.Writer
}

// Run shows the dashboard until the user quits, ctx is canceled, or the
// session stops publishing.
func Run(ctx context.Context, source Source, opts Options) error {
	title := opts.Title
	if title == "" {
		title = "leapshader"
	}
	m := New(source, opts.Frames, title)
	defer m.Close()

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	_, err := tea.NewProgram(m, progOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
