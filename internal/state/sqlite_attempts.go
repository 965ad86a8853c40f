package state

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

// RecordAttempt stores one applied compile outcome.
func (s *SQLiteStore) RecordAttempt(a *core.CompileAttempt) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if a.ID == "" {
		a.ID = generateID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO compile_attempts (id, seq, status, pair_hash, diagnostics, origin, duration_ns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, int64(a.Seq), string(a.Status), a.PairHash, a.Diagnostics, a.Origin,
		int64(a.Duration), a.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record compile attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the most recent attempts, newest first.
// A limit of zero or less returns every attempt.
func (s *SQLiteStore) ListAttempts(limit int) ([]*core.CompileAttempt, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT id, seq, status, pair_hash, diagnostics, origin, duration_ns, created_at
		 FROM compile_attempts
		 ORDER BY created_at DESC, seq DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list compile attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.CompileAttempt
	for rows.Next() {
		var (
			a         core.CompileAttempt
			seq       int64
			status    string
			duration  int64
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &seq, &status, &a.PairHash, &a.Diagnostics, &a.Origin, &duration, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan compile attempt: %w", err)
		}
		a.Seq = uint64(seq)
		a.Status = core.CompileStatus(status)
		a.Duration = time.Duration(duration)
		a.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate compile attempts: %w", err)
	}
	return out, nil
}
