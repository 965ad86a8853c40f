package state

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

func setupMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStoreWithDB(db, nil), mock
}

var errDisk = errors.New("disk I/O error")

func TestSQLiteStore_RecordAttemptError(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectExec("INSERT INTO compile_attempts").WillReturnError(errDisk)

	err := store.RecordAttempt(&core.CompileAttempt{Status: core.CompileStatusPass})

	assert.ErrorIs(t, err, errDisk)
	assert.Contains(t, err.Error(), "failed to record compile attempt")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListAttemptsScanError(t *testing.T) {
	store, mock := setupMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "seq", "status", "pair_hash", "diagnostics", "origin", "duration_ns", "created_at"}).
		AddRow("id-1", "not-a-number", "pass", "h", 0, "edit", 0, 0)
	mock.ExpectQuery("FROM compile_attempts").WillReturnRows(rows)

	_, err := store.ListAttempts(5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan compile attempt")
}

func TestSQLiteStore_LatestSnapshotNoRows(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectQuery("FROM snapshots").WillReturnError(sql.ErrNoRows)

	snap, err := store.LatestSnapshot()

	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSQLiteStore_SaveSnapshotErrors(t *testing.T) {
	t.Run("lookup fails", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectQuery("FROM snapshots").WillReturnError(errDisk)

		err := store.SaveSnapshot(&core.Snapshot{Pair: core.SourcePair{Vertex: "v"}})
		assert.ErrorIs(t, err, errDisk)
	})

	t.Run("insert fails", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectQuery("FROM snapshots").WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO snapshots").WillReturnError(errDisk)

		err := store.SaveSnapshot(&core.Snapshot{Pair: core.SourcePair{Vertex: "v"}})
		assert.ErrorIs(t, err, errDisk)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLiteStore_DeleteOldSnapshotsError(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectExec("DELETE FROM snapshots").WillReturnError(errDisk)

	assert.ErrorIs(t, store.DeleteOldSnapshots(3), errDisk)
}
