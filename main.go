// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"superbuy/cmd"
	"superbuy/internal/data/repository"
	"superbuy/internal/wire"
	"superbuy/pkg/database"
	"superbuy/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db := database.New(database.Config{
		Host:           config.Database.Host,
		Port:           config.Database.Port,
		Name:           config.Database.Name,
		User:           config.Database.User,
		Password:       config.Database.Password,
		SSLMode:        config.Database.SSLMode,
		MaxConns:       config.Database.MaxConns,
		ConnectTimeout: config.Database.ConnectTimeout,
	}, logger)

	if err := db.Connect(ctx, config.Database.ConnectRetries); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	defer func() {
		if err := db.Close(context.Background(), config.Database.CloseTimeout); err != nil {
			logger.Error("Database close failed", zap.Error(err))
		}
	}()

	// Apply pending schema migrations on boot
	if config.Database.RunMigrations {
		if err := db.RunMigrations(ctx, config.Database.MigrationsDir, config.Database.MigrationTarget); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, db, config, logger)

	// Start server
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server error", zap.Error(err))
	}
}
