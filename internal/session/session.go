// Package session owns the live compile state of one editing session: the
// committed source pair, compile status, error report and editor drafts.
//
// All state is owned by the goroutine running Run. Public methods post
// closures to that goroutine and wait for them, so every write, including
// the staleness check on compile completion, happens on one goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/leapstack-labs/leapshader/internal/notifier"
	"github.com/leapstack-labs/leapshader/internal/pipeline"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// DefaultQuietPeriod is the debounce delay after the last edit.
const DefaultQuietPeriod = 300 * time.Millisecond

// Origins recorded with each attempt.
const (
	OriginStartup = "startup"
	OriginEdit    = "edit"
	OriginExample = "example"
	OriginResume  = "resume"
)

// ErrClosed is returned when the session loop is not running anymore.
var ErrClosed = errors.New("session closed")

// Validator validates a source pair.
type Validator interface {
	Validate(ctx context.Context, pair core.SourcePair) pipeline.Outcome
}

// Recorder receives every applied terminal outcome.
type Recorder interface {
	RecordOutcome(ctx context.Context, tok Token, out pipeline.Outcome) error
}

// Settings are preview options chosen in the UI.
type Settings struct {
	TransparentBackground bool `json:"transparent_background"`
	AutoRotate            bool `json:"auto_rotate"`
}

// Config holds configuration for a session.
type Config struct {
	Validator   Validator
	Recorder    Recorder
	QuietPeriod time.Duration
	Clock       clock.Clock
	Logger      *slog.Logger

	// Initial seeds the committed pair. It is validated when Run starts.
	Initial core.SourcePair
	// InitialOrigin labels the startup validation; defaults to OriginStartup.
	InitialOrigin string
	Settings      Settings
}

// Session is the single owner of compile state.
type Session struct {
	validator Validator
	recorder  Recorder
	quiet     time.Duration
	clock     clock.Clock
	logger    *slog.Logger
	notify    *notifier.Notifier

	events chan func()
	done   chan struct{}
	ctx    context.Context
	wg     sync.WaitGroup

	// loop-owned state
	seq       uint64
	status    core.CompileStatus
	report    core.ErrorReport
	committed core.SourcePair
	workspace *Workspace
	timer     *clock.Timer
	timerGen  uint64
	load      core.LoadStatus
	origin    string
	settings  Settings
	stats     Stats
	lastApply time.Time
	initial   Token
}

// New creates a session. Call Run to start its loop.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	quiet := cfg.QuietPeriod
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	origin := cfg.InitialOrigin
	if origin == "" {
		origin = OriginStartup
	}

	s := &Session{
		validator: cfg.Validator,
		recorder:  cfg.Recorder,
		quiet:     quiet,
		clock:     clk,
		logger:    logger,
		notify:    notifier.New(),
		events:    make(chan func()),
		done:      make(chan struct{}),
		status:    core.CompileStatusCompiling,
		committed: cfg.Initial,
		workspace: NewWorkspace(cfg.Initial),
		load:      core.LoadStatusIdle,
		origin:    origin,
		settings:  cfg.Settings,
	}
	s.seq = 1
	s.initial = Token{
		Seq:    s.seq,
		Stage:  core.StageVertex,
		Text:   cfg.Initial.Vertex,
		Pair:   cfg.Initial,
		Origin: origin,
	}
	return s
}

// Run processes events until ctx is canceled. The initial pair is
// validated first.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	defer func() {
		s.stopTimer()
		close(s.done)
		s.wg.Wait()
		s.notify.Close()
	}()

	s.initial.Scheduled = s.clock.Now()
	s.dispatch(s.initial)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("session stopped", "seq", s.seq)
			return nil
		case fn := <-s.events:
			fn()
		}
	}
}

// post queues fn on the loop without waiting for it.
func (s *Session) post(fn func()) bool {
	select {
	case s.events <- fn:
		return true
	case <-s.done:
		return false
	}
}

// do runs fn on the loop and waits for it to finish.
func (s *Session) do(fn func()) error {
	finished := make(chan struct{})
	if !s.post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// changed wakes every subscriber.
func (s *Session) changed() {
	s.notify.Broadcast()
}

// =============================================================================
// Editing surface
// =============================================================================

// Edit records text as the draft for stage and schedules a compile.
// The status is COMPILING when Edit returns.
func (s *Session) Edit(stage core.Stage, text string) error {
	if !stage.Valid() {
		return fmt.Errorf("edit: invalid stage %d", stage)
	}
	return s.do(func() { s.schedule(stage, text) })
}

// SwitchStage mounts stage in the editor and returns its seed text.
func (s *Session) SwitchStage(stage core.Stage) (string, error) {
	if !stage.Valid() {
		return "", fmt.Errorf("switch: invalid stage %d", stage)
	}
	var seed string
	err := s.do(func() {
		var merged bool
		seed, merged = s.workspace.Switch(stage, s.status)
		s.logger.Debug("stage switched", "stage", stage, "merged", merged)
		s.changed()
	})
	return seed, err
}

// Load replaces the source with pair, bypassing the debounce. The pair
// still has to validate before it is committed.
func (s *Session) Load(pair core.SourcePair, origin string) error {
	return s.do(func() { s.loadPair(pair, origin) })
}

// SetLoadStatus reports whether an example is being fetched.
func (s *Session) SetLoadStatus(status core.LoadStatus) error {
	return s.do(func() {
		s.load = status
		s.changed()
	})
}

// SetSettings replaces the preview settings.
func (s *Session) SetSettings(settings Settings) error {
	return s.do(func() {
		s.settings = settings
		s.changed()
	})
}

// =============================================================================
// Renderer
// =============================================================================

// RenderState returns the compile status and committed pair. It is the only
// view the preview renderer gets; drafts are never exposed through it.
func (s *Session) RenderState() (core.CompileStatus, core.SourcePair, error) {
	var (
		status core.CompileStatus
		pair   core.SourcePair
	)
	err := s.do(func() {
		status, pair = s.status, s.committed
	})
	return status, pair, err
}

// ReportRender replaces the runtime diagnostics with diag.
func (s *Session) ReportRender(diag core.StructuredError) error {
	return s.do(func() {
		s.report.Runtime = []core.StructuredError{diag}
		s.changed()
	})
}

// ClearRender drops runtime diagnostics after a successful build.
func (s *Session) ClearRender() error {
	return s.do(func() {
		if len(s.report.Runtime) == 0 {
			return
		}
		s.report.Runtime = nil
		s.changed()
	})
}

// Settings returns the current preview settings.
func (s *Session) Settings() (Settings, error) {
	var settings Settings
	err := s.do(func() { settings = s.settings })
	return settings, err
}

// =============================================================================
// Observers
// =============================================================================

// Snapshot is a copy of the session state for display.
type Snapshot struct {
	Seq       uint64             `json:"seq"`
	Status    core.CompileStatus `json:"status"`
	Committed core.SourcePair    `json:"committed"`
	Nominal   core.SourcePair    `json:"nominal"`
	Active    core.Stage         `json:"active"`
	// Editor is the text of each stage as the editor shows it.
	Editor   core.SourcePair  `json:"editor"`
	Report   core.ErrorReport `json:"report"`
	Load     core.LoadStatus  `json:"load"`
	Origin   string           `json:"origin"`
	Settings Settings         `json:"settings"`
	Stats    Stats            `json:"stats"`
	// Applied is when the last terminal outcome was applied.
	Applied time.Time `json:"applied"`
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.do(func() {
		snap = Snapshot{
			Seq:       s.seq,
			Status:    s.status,
			Committed: s.committed,
			Nominal:   s.workspace.Nominal(),
			Active:    s.workspace.Active(),
			Editor:    s.workspace.Union(),
			Report:    s.report.Clone(),
			Load:      s.load,
			Origin:    s.origin,
			Settings:  s.settings,
			Stats:     s.stats,
			Applied:   s.lastApply,
		}
	})
	return snap, err
}

// Subscribe returns a channel pinged whenever state changes. Listeners
// should call Snapshot after each ping.
func (s *Session) Subscribe() chan struct{} {
	return s.notify.Subscribe()
}

// Unsubscribe removes a listener added with Subscribe.
func (s *Session) Unsubscribe(ch chan struct{}) {
	s.notify.Unsubscribe(ch)
}

// Done is closed when the loop exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// WaitTerminal blocks until an attempt newer than seq after has been
// applied, then returns the snapshot.
func (s *Session) WaitTerminal(ctx context.Context, after uint64) (Snapshot, error) {
	sub := s.Subscribe()
	defer s.Unsubscribe(sub)
	for {
		snap, err := s.Snapshot()
		if err != nil {
			return snap, err
		}
		if snap.Seq > after && snap.Status.Terminal() {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-s.done:
			return snap, ErrClosed
		case <-sub:
		}
	}
}
