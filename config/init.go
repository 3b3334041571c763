package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/customeros/mailrefresh/internal/database"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/tracing"
	"github.com/customeros/mailrefresh/services/pop3"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *database.DatabaseConfig
	SettingsConfig *SettingsConfig
	Pop3Config     *pop3.Config
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &database.DatabaseConfig{},
		SettingsConfig: &SettingsConfig{},
		Pop3Config:     &pop3.Config{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
