package database

import (
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

func InitDatabase(dbConfig *DatabaseConfig) (*gorm.DB, error) {
	return NewConnection(dbConfig)
}

func InitSQLiteDatabase(dbConfig *DatabaseConfig) (*sqlx.DB, error) {
	return NewSQLiteConnection(dbConfig.SQLitePath)
}
