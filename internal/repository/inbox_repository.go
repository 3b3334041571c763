package repository

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/models"
	"github.com/customeros/mailrefresh/internal/tracing"
)

type inboxRepository struct {
	db *gorm.DB
}

func NewInboxRepository(db *gorm.DB) interfaces.InboxStore {
	return &inboxRepository{db: db}
}

// ResetInboxTable drops and recreates email_inbox, leaving it empty
func (r *inboxRepository) ResetInboxTable(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboxRepository.ResetInboxTable")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		migrator := tx.Migrator()
		if migrator.HasTable(&models.InboxEmail{}) {
			if err := migrator.DropTable(&models.InboxEmail{}); err != nil {
				return err
			}
		}
		return migrator.CreateTable(&models.InboxEmail{})
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to reset inbox table: %w", err)
	}

	return nil
}
