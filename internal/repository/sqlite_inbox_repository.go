package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/tracing"
)

const sqliteInboxSchema = `CREATE TABLE IF NOT EXISTS email_inbox (
	id           TEXT PRIMARY KEY,
	server_id    INTEGER NOT NULL,
	message_id   TEXT,
	subject      TEXT,
	from_address TEXT,
	from_name    TEXT,
	to_addresses TEXT,
	size         INTEGER,
	sent_at      DATETIME,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
)`

type sqliteInboxRepository struct {
	db *sqlx.DB
}

func NewSQLiteInboxRepository(db *sqlx.DB) interfaces.InboxStore {
	return &sqliteInboxRepository{db: db}
}

func (r *sqliteInboxRepository) ResetInboxTable(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sqliteInboxRepository.ResetInboxTable")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to begin inbox reset: %w", err)
	}
	defer tx.Rollback() // nolint: errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS email_inbox"); err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to drop inbox table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqliteInboxSchema); err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to create inbox table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to commit inbox reset: %w", err)
	}
	return nil
}

// MigrateSQLiteDB creates email_inbox when it is missing. Existing rows are kept.
func MigrateSQLiteDB(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, sqliteInboxSchema); err != nil {
		return fmt.Errorf("failed to migrate inbox table: %w", err)
	}
	return nil
}
