package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platefeed/backend/config"
	"github.com/platefeed/backend/internal/database"
	"github.com/platefeed/backend/internal/logger"
	"github.com/platefeed/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLog, err := logger.New(os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.New(cfg)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db); err != nil {
		appLog.Fatal("failed to run migrations", "error", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		appLog.Fatal("failed to connect to redis", "error", err)
	}

	// Image storage is optional; without it recipes keep client-supplied
	// image references.
	s3Config, err := config.NewS3Config(context.Background(), cfg.S3Bucket)
	if err != nil {
		appLog.Warn("image storage unavailable", "error", err)
		s3Config = nil
	}

	srv := server.New(cfg, db, redisClient, s3Config, appLog)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			appLog.Fatal("server error", "error", err)
		}
	case sig := <-quit:
		appLog.Info("received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Fatal("server shutdown error", "error", err)
	}
	appLog.Info("server stopped")
}
