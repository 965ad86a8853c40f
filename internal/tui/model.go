// Package tui provides a terminal dashboard that follows a live shader
// session.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/leapshader/internal/diagnostic"
	"github.com/leapstack-labs/leapshader/internal/preview"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// frameInterval is how often the frame counter is redrawn.
const frameInterval = 250 * time.Millisecond

// Source is the session state the dashboard follows.
type Source interface {
	Snapshot() (session.Snapshot, error)
	Subscribe() chan struct{}
	Unsubscribe(ch chan struct{})
}

// FrameFunc returns the current render frame.
type FrameFunc func() preview.Frame

type (
	snapshotMsg session.Snapshot
	frameMsg    preview.Frame
	errMsg      struct{ err error }
	closedMsg   struct{}
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	source  Source
	frames  FrameFunc
	sub     chan struct{}
	spinner spinner.Model
	styles  styles

	snap    session.Snapshot
	ready   bool
	frame   preview.Frame
	stage   core.Stage
	pinned  bool
	title   string
	err     error
	width   int
	stopped bool
}

// New creates a dashboard model. frames may be nil when no render loop runs.
func New(source Source, frames FrameFunc, title string) *Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	st := newStyles(lipgloss.DefaultRenderer())
	sp.Style = st.compiling
	return &Model{
		source:  source,
		frames:  frames,
		sub:     source.Subscribe(),
		spinner: sp,
		styles:  st,
		title:   title,
	}
}

// Close releases the session subscription.
func (m *Model) Close() {
	if m.sub != nil {
		m.source.Unsubscribe(m.sub)
		m.sub = nil
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.fetch, m.wait()}
	if m.frames != nil {
		cmds = append(cmds, m.tickFrame())
	}
	return tea.Batch(cmds...)
}

func (m *Model) fetch() tea.Msg {
	snap, err := m.source.Snapshot()
	if err != nil {
		return errMsg{err}
	}
	return snapshotMsg(snap)
}

// wait blocks until the session changes.
func (m *Model) wait() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		if sub == nil {
			return closedMsg{}
		}
		if _, ok := <-sub; !ok {
			return closedMsg{}
		}
		return m.fetch()
	}
}

func (m *Model) tickFrame() tea.Cmd {
	frames := m.frames
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg(frames())
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab":
			m.stage = m.stage.Other()
			m.pinned = true
		case "a":
			m.pinned = false
			m.stage = m.snap.Active
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = session.Snapshot(msg)
		m.ready = true
		m.err = nil
		if !m.pinned {
			m.stage = m.snap.Active
		}
		return m, m.wait()

	case frameMsg:
		m.frame = preview.Frame(msg)
		return m, m.tickFrame()

	case errMsg:
		m.err = msg.err
		return m, m.wait()

	case closedMsg:
		m.stopped = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render(m.title))
	b.WriteString("  ")
	b.WriteString(m.statusView())
	if m.ready {
		b.WriteString(m.styles.muted.Render(fmt.Sprintf("  seq %d  %s", m.snap.Seq, m.snap.Origin)))
		if m.snap.Load == core.LoadStatusLoading {
			b.WriteString(m.styles.muted.Render("  loading"))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(m.tabsView())
	b.WriteString("\n\n")
	b.WriteString(m.diagnosticsView())
	b.WriteString("\n")

	if m.ready {
		s := m.snap.Stats
		b.WriteString(m.styles.muted.Render(fmt.Sprintf(
			"edits %d  dispatched %d  applied %d  discarded %d  failures %d",
			s.Edits, s.Dispatched, s.Applied, s.Discarded, s.Failures)))
		b.WriteString("\n")
	}
	if m.frames != nil {
		b.WriteString(m.frameView())
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(m.styles.fail.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.muted.Render("tab: switch stage  a: follow active  q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) statusView() string {
	if !m.ready {
		return m.spinner.View() + " starting"
	}
	switch m.snap.Status {
	case core.CompileStatusPass:
		return m.styles.pass.Render("PASS")
	case core.CompileStatusFail:
		return m.styles.fail.Render(fmt.Sprintf("FAIL (%d)", m.snap.Report.Count()))
	default:
		return m.spinner.View() + m.styles.compiling.Render(" COMPILING")
	}
}

func (m *Model) tabsView() string {
	tabs := make([]string, 0, 2)
	for _, stage := range []core.Stage{core.StageVertex, core.StageFragment} {
		label := stage.String()
		if n := len(m.snap.Report.ForStage(stage)); n > 0 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		if stage == m.snap.Active {
			label += " *"
		}
		style := m.styles.tab
		if stage == m.stage {
			style = m.styles.activeTab
		}
		tabs = append(tabs, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) diagnosticsView() string {
	if !m.ready {
		return ""
	}
	errs := m.snap.Report.ForStage(m.stage)
	if len(errs) == 0 {
		return m.styles.muted.Render("no diagnostics") + "\n"
	}
	var b strings.Builder
	for _, e := range errs {
		line := diagnostic.Pretty(e)
		if m.width > 4 && lipgloss.Width(line) > m.width-2 {
			line = truncate(line, m.width-2)
		}
		style := m.styles.fail
		if e.Kind == core.KindRender {
			style = m.styles.warn
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) frameView() string {
	f := m.frame
	material := "no material"
	if f.Material != nil {
		material = "material " + shortHash(f.Material.Hash)
	}
	return m.styles.muted.Render(fmt.Sprintf("frame %d  t=%.2fs  %s", f.N, f.Time.Seconds(), material))
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
