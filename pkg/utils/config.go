package utils

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	AllowedOrigins []string
	BcryptCost     int
}

type DatabaseConfig struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxConns        int32
	ConnectTimeout  time.Duration
	ConnectRetries  int
	CloseTimeout    time.Duration
	MigrationsDir   string
	RunMigrations   bool
	MigrationTarget string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "superbuy")
	viper.SetDefault("PORT", "5000")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5000")
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_CONNECT_TIMEOUT_SECONDS", 10)
	viper.SetDefault("DB_CONNECT_RETRIES", 3)
	viper.SetDefault("DB_CLOSE_TIMEOUT_SECONDS", 30)
	viper.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	viper.SetDefault("DB_RUN_MIGRATIONS", true)
	viper.SetDefault("DB_MIGRATION_TARGET", "")

	// A missing .env is fine: everything can come from the environment.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !strings.Contains(err.Error(), "no such file") {
				return nil, err
			}
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:           viper.GetString("APP_NAME"),
			Port:           viper.GetString("PORT"),
			Debug:          viper.GetBool("DEBUG"),
			LogPath:        viper.GetString("LOG_PATH"),
			AllowedOrigins: strings.Split(viper.GetString("ALLOWED_ORIGINS"), ","),
			BcryptCost:     viper.GetInt("BCRYPT_COST"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			Name:            viper.GetString("DB_NAME"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASS"),
			SSLMode:         viper.GetString("DB_SSL_MODE"),
			MaxConns:        viper.GetInt32("DB_MAX_CONNS"),
			ConnectTimeout:  time.Duration(viper.GetInt("DB_CONNECT_TIMEOUT_SECONDS")) * time.Second,
			ConnectRetries:  viper.GetInt("DB_CONNECT_RETRIES"),
			CloseTimeout:    time.Duration(viper.GetInt("DB_CLOSE_TIMEOUT_SECONDS")) * time.Second,
			MigrationsDir:   viper.GetString("DB_MIGRATIONS_DIR"),
			RunMigrations:   viper.GetBool("DB_RUN_MIGRATIONS"),
			MigrationTarget: viper.GetString("DB_MIGRATION_TARGET"),
		},
	}

	return config, nil
}
