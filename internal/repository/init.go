package repository

import (
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/database"
	"github.com/customeros/mailrefresh/internal/models"
)

type Repositories struct {
	InboxRepository    interfaces.InboxStore
	SettingsRepository SettingsRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		InboxRepository:    NewInboxRepository(db),
		SettingsRepository: NewSettingsRepository(db),
	}
}

// InitSQLiteRepositories has no settings table; settings come from file or env.
func InitSQLiteRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		InboxRepository: NewSQLiteInboxRepository(db),
	}
}

func MigrateDB(dbConfig *database.DatabaseConfig, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(
		&models.InboxEmail{},
		&models.Setting{},
	)

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
