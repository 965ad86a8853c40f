package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

// SaveSnapshot stores a committed pair. Saving the same pair as the latest
// snapshot is a no-op.
func (s *SQLiteStore) SaveSnapshot(snap *core.Snapshot) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if snap.Hash == "" {
		snap.Hash = snap.Pair.Hash()
	}

	latest, err := s.LatestSnapshot()
	if err != nil {
		return err
	}
	if latest != nil && latest.Hash == snap.Hash {
		*snap = *latest
		return nil
	}

	if snap.ID == "" {
		snap.ID = generateID()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.now().UTC()
	}

	_, err = s.db.ExecContext(ctx(),
		`INSERT INTO snapshots (id, hash, vertex, fragment, origin, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Hash, snap.Pair.Vertex, snap.Pair.Fragment, snap.Origin, snap.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	s.logger.Debug("snapshot saved", "id", snap.ID, "hash", snap.Hash)
	return nil
}

// LatestSnapshot returns the most recent snapshot, or nil if there is none.
func (s *SQLiteStore) LatestSnapshot() (*core.Snapshot, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	var (
		snap      core.Snapshot
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx(),
		`SELECT id, hash, vertex, fragment, origin, created_at
		 FROM snapshots
		 ORDER BY created_at DESC
		 LIMIT 1`,
	).Scan(&snap.ID, &snap.Hash, &snap.Pair.Vertex, &snap.Pair.Fragment, &snap.Origin, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	snap.CreatedAt = time.Unix(0, createdAt).UTC()
	return &snap, nil
}

// DeleteOldSnapshots keeps only the keep most recent snapshots.
func (s *SQLiteStore) DeleteOldSnapshots(keep int) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if keep < 0 {
		keep = 0
	}

	_, err := s.db.ExecContext(ctx(),
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("failed to delete old snapshots: %w", err)
	}
	return nil
}
