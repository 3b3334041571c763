package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid database config")

type DatabaseConfig struct {
	Driver          string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	Host            string `env:"POSTGRES_HOST"`
	Port            string `env:"POSTGRES_PORT" envDefault:"5432"`
	User            string `env:"POSTGRES_USER"`
	DBName          string `env:"POSTGRES_DB_NAME"`
	Password        string `env:"POSTGRES_PASSWORD"`
	MaxConn         int    `env:"POSTGRES_DB_MAX_CONN" envDefault:"25"`
	MaxIdleConn     int    `env:"POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	SQLitePath      string `env:"SQLITE_PATH" envDefault:"mailrefresh.db"`
}

func NewConnection(dbConfig *DatabaseConfig) (*gorm.DB, error) {
	if err := validateConfig(dbConfig); err != nil {
		return nil, err
	}

	portInt, err := strconv.Atoi(dbConfig.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid port number: %w", err)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host, portInt, dbConfig.User, dbConfig.Password, dbConfig.DBName, dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(logLevel(dbConfig.LogLevel)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return db, nil
}

func logLevel(level string) gormLogger.LogLevel {
	switch strings.ToUpper(level) {
	case "SILENT":
		return gormLogger.Silent
	case "ERROR":
		return gormLogger.Error
	case "INFO":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

func validateConfig(config *DatabaseConfig) error {
	switch {
	case config == nil:
		return errors.Wrap(ErrInvalidConfig, "config is nil")
	case config.Host == "":
		return errors.Wrap(ErrInvalidConfig, "host is empty")
	case config.Port == "":
		return errors.Wrap(ErrInvalidConfig, "port is empty")
	case config.User == "":
		return errors.Wrap(ErrInvalidConfig, "user is empty")
	case config.Password == "":
		return errors.Wrap(ErrInvalidConfig, "password is empty")
	case config.DBName == "":
		return errors.Wrap(ErrInvalidConfig, "name is empty")
	case config.SSLMode == "":
		return errors.Wrap(ErrInvalidConfig, "SSLMode is empty")
	}
	return nil
}
