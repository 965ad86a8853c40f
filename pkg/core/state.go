package core

import "time"

// Store defines the interface for compile history persistence.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Attempt operations
	RecordAttempt(attempt *CompileAttempt) error
	ListAttempts(limit int) ([]*CompileAttempt, error)

	// Snapshot operations
	SaveSnapshot(snapshot *Snapshot) error
	LatestSnapshot() (*Snapshot, error)
	DeleteOldSnapshots(keep int) error
}

// CompileAttempt records one applied terminal compile outcome.
type CompileAttempt struct {
	ID          string        `json:"id"`
	Seq         uint64        `json:"seq"`
	Status      CompileStatus `json:"status"`
	PairHash    string        `json:"pair_hash"`
	Diagnostics int           `json:"diagnostics"`
	Origin      string        `json:"origin"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Snapshot is a committed SourcePair persisted for resume.
type Snapshot struct {
	ID        string     `json:"id"`
	Hash      string     `json:"hash"`
	Pair      SourcePair `json:"pair"`
	Origin    string     `json:"origin"`
	CreatedAt time.Time  `json:"created_at"`
}
