package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cast"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/mailrefresh/internal/models"
	"github.com/customeros/mailrefresh/internal/tracing"
)

type SettingsRepository interface {
	ReadBool(ctx context.Context, name string) (bool, error)
	ReadString(ctx context.Context, name string) (string, error)
	Save(ctx context.Context, name, value string) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) get(ctx context.Context, name string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).Where("key = ?", name).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// ReadBool returns false when the setting is absent
func (r *settingsRepository) ReadBool(ctx context.Context, name string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingsRepository.ReadBool")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("setting", name)

	setting, err := r.get(ctx, name)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, fmt.Errorf("failed to read setting %s: %w", name, err)
	}
	if setting == nil || strings.TrimSpace(setting.Value) == "" {
		return false, nil
	}

	value, err := cast.ToBoolE(strings.TrimSpace(setting.Value))
	if err != nil {
		tracing.TraceErr(span, err)
		return false, fmt.Errorf("setting %s is not a boolean: %w", name, err)
	}
	return value, nil
}

// ReadString returns "" when the setting is absent
func (r *settingsRepository) ReadString(ctx context.Context, name string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingsRepository.ReadString")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("setting", name)

	setting, err := r.get(ctx, name)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", fmt.Errorf("failed to read setting %s: %w", name, err)
	}
	if setting == nil {
		return "", nil
	}
	return setting.Value, nil
}

func (r *settingsRepository) Save(ctx context.Context, name, value string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingsRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("setting", name)

	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}

	setting := models.Setting{Key: name, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to save setting %s: %w", name, err)
	}
	return nil
}
