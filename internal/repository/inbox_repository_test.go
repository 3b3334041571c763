package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hasInboxTableSQL = `SELECT count\(\*\) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA\(\) AND table_name = \$1`
	dropInboxSQL     = `DROP TABLE IF EXISTS "email_inbox" CASCADE`
	createInboxSQL   = `CREATE TABLE "email_inbox"`
	createIndexSQL   = `CREATE INDEX IF NOT EXISTS "idx_email_inbox_.+" ON "email_inbox"`
	inboxIndexCount  = 4
)

func expectCreateInbox(mock sqlmock.Sqlmock) {
	mock.ExpectExec(createInboxSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	for i := 0; i < inboxIndexCount; i++ {
		mock.ExpectExec(createIndexSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func TestInboxRepository_ResetDropsExistingTable(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectBegin()
	mock.ExpectQuery(hasInboxTableSQL).WithArgs("email_inbox", "BASE TABLE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(dropInboxSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	expectCreateInbox(mock)
	mock.ExpectCommit()

	err := NewInboxRepository(db).ResetInboxTable(context.Background())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInboxRepository_ResetCreatesMissingTable(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectBegin()
	mock.ExpectQuery(hasInboxTableSQL).WithArgs("email_inbox", "BASE TABLE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	expectCreateInbox(mock)
	mock.ExpectCommit()

	err := NewInboxRepository(db).ResetInboxTable(context.Background())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInboxRepository_ResetRollsBackOnFailure(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectBegin()
	mock.ExpectQuery(hasInboxTableSQL).WithArgs("email_inbox", "BASE TABLE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(dropInboxSQL).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := NewInboxRepository(db).ResetInboxTable(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reset inbox table")
	assert.NoError(t, mock.ExpectationsWereMet())
}
