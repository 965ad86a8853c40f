package preview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/leapstack-labs/leapshader/internal/notifier"
)

// DefaultFPS is the render tick rate.
const DefaultFPS = 30

// Frame is the render state after one tick.
type Frame struct {
	N uint64 `json:"n"`
	// Time feeds the time uniform; it starts at zero when the loop starts.
	Time     time.Duration `json:"time"`
	Material *Material     `json:"-"`
}

// LoopConfig holds configuration for a render loop.
type LoopConfig struct {
	Synchronizer *Synchronizer
	FPS          int
	Clock        clock.Clock
	Logger       *slog.Logger
}

// Loop ticks the synchronizer at a fixed rate and publishes material
// changes to subscribers.
type Loop struct {
	sync     *Synchronizer
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	notify   *notifier.Notifier

	mu    sync.RWMutex
	frame Frame
}

// NewLoop creates a render loop.
func NewLoop(cfg LoopConfig) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{
		sync:     cfg.Synchronizer,
		interval: time.Second / time.Duration(fps),
		clock:    clk,
		logger:   logger,
		notify:   notifier.New(),
	}
}

// Run ticks until ctx is canceled. Tick failures are logged and the loop
// keeps running.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()
	defer l.notify.Close()

	start := l.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			l.Step(ctx, now.Sub(start))
		}
	}
}

// Step runs a single frame.
func (l *Loop) Step(ctx context.Context, elapsed time.Duration) {
	rebuilt, err := l.sync.Tick(ctx)
	if err != nil {
		l.logger.Debug("render tick failed", "error", err)
	}

	l.mu.Lock()
	l.frame.N++
	l.frame.Time = elapsed
	if rebuilt {
		l.frame.Material = l.sync.Active()
	}
	l.mu.Unlock()

	if rebuilt {
		l.notify.Broadcast()
	}
}

// Frame returns the latest frame.
func (l *Loop) Frame() Frame {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frame
}

// Subscribe returns a channel pinged when a new material becomes active.
func (l *Loop) Subscribe() chan struct{} {
	return l.notify.Subscribe()
}

// Unsubscribe removes a listener added with Subscribe.
func (l *Loop) Unsubscribe(ch chan struct{}) {
	l.notify.Unsubscribe(ch)
}
