// Package state persists compile history and committed source snapshots in
// SQLite.
package state

import (
	"errors"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

// ErrNotOpen is returned by every operation before Open succeeds.
var ErrNotOpen = errors.New("database not opened")

// Type aliases for the persisted core types.
type (
	// Store is an alias for core.Store.
	Store = core.Store

	// CompileAttempt is an alias for core.CompileAttempt.
	CompileAttempt = core.CompileAttempt

	// Snapshot is an alias for core.Snapshot.
	Snapshot = core.Snapshot
)

var _ core.Store = (*SQLiteStore)(nil)
