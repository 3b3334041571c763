package repository

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func countInbox(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM email_inbox"))
	return n
}

func TestSQLiteInboxRepository_ResetCreatesTable(t *testing.T) {
	db := newTestSQLite(t)
	repo := NewSQLiteInboxRepository(db)

	require.NoError(t, repo.ResetInboxTable(context.Background()))

	assert.Equal(t, 0, countInbox(t, db))
}

func TestSQLiteInboxRepository_ResetDiscardsRows(t *testing.T) {
	db := newTestSQLite(t)
	repo := NewSQLiteInboxRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ResetInboxTable(ctx))
	_, err := db.Exec("INSERT INTO email_inbox (id, server_id, subject) VALUES ('inbx_1', 1234, 'hello'), ('inbx_2', 5678, 'world')")
	require.NoError(t, err)
	require.Equal(t, 2, countInbox(t, db))

	require.NoError(t, repo.ResetInboxTable(ctx))

	assert.Equal(t, 0, countInbox(t, db))
}

func TestSQLiteInboxRepository_ResetIsRepeatable(t *testing.T) {
	db := newTestSQLite(t)
	repo := NewSQLiteInboxRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.ResetInboxTable(context.Background()))
	}
	assert.Equal(t, 0, countInbox(t, db))
}

func TestSQLiteInboxRepository_ClosedDatabase(t *testing.T) {
	db := newTestSQLite(t)
	repo := NewSQLiteInboxRepository(db)
	require.NoError(t, db.Close())

	err := repo.ResetInboxTable(context.Background())

	assert.Error(t, err)
}

func TestMigrateSQLiteDB_CreatesMissingTable(t *testing.T) {
	db := newTestSQLite(t)

	require.NoError(t, MigrateSQLiteDB(context.Background(), db))

	assert.Equal(t, 0, countInbox(t, db))
}

func TestMigrateSQLiteDB_KeepsExistingRows(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, MigrateSQLiteDB(ctx, db))
	_, err := db.Exec("INSERT INTO email_inbox (id, server_id, subject) VALUES ('inbx_1', 1234, 'hello')")
	require.NoError(t, err)

	require.NoError(t, MigrateSQLiteDB(ctx, db))

	assert.Equal(t, 1, countInbox(t, db))
}
