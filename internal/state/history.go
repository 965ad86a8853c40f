package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapshader/internal/pipeline"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// DefaultKeepSnapshots bounds the snapshot table.
const DefaultKeepSnapshots = 50

// History records applied session outcomes into a store.
type History struct {
	store  core.Store
	keep   int
	logger *slog.Logger
}

// NewHistory creates a session recorder backed by store.
func NewHistory(store core.Store, keep int, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if keep <= 0 {
		keep = DefaultKeepSnapshots
	}
	return &History{store: store, keep: keep, logger: logger}
}

var _ session.Recorder = (*History)(nil)

// RecordOutcome stores the attempt and, on PASS, the committed pair.
func (h *History) RecordOutcome(_ context.Context, tok session.Token, out pipeline.Outcome) error {
	attempt := &core.CompileAttempt{
		Seq:         tok.Seq,
		Status:      out.Status,
		PairHash:    out.Pair.Hash(),
		Diagnostics: len(out.Report.Detailed),
		Origin:      tok.Origin,
		Duration:    out.Duration,
	}
	if err := h.store.RecordAttempt(attempt); err != nil {
		return err
	}
	if !out.Passed() {
		return nil
	}

	snap := &core.Snapshot{Pair: out.Pair, Origin: tok.Origin}
	if err := h.store.SaveSnapshot(snap); err != nil {
		return err
	}
	if err := h.store.DeleteOldSnapshots(h.keep); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// Resume returns the last committed pair, if any was recorded.
func (h *History) Resume() (core.SourcePair, bool, error) {
	snap, err := h.store.LatestSnapshot()
	if err != nil {
		return core.SourcePair{}, false, err
	}
	if snap == nil {
		return core.SourcePair{}, false, nil
	}
	h.logger.Debug("resuming snapshot", "id", snap.ID, "created_at", snap.CreatedAt)
	return snap.Pair, true, nil
}
