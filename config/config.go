package config

const (
	SettingsSourceFile     = "file"
	SettingsSourceDatabase = "database"
)

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"12222"`
	APIKey      string `env:"API_KEY"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type SettingsConfig struct {
	// file reads SettingsFile and MAILREFRESH_* env, database reads the settings table
	Source string `env:"SETTINGS_SOURCE" envDefault:"file"`
	File   string `env:"SETTINGS_FILE" envDefault:"settings.yaml"`
}
