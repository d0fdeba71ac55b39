package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymflex/internal/config"
	"gymflex/internal/db"
	"gymflex/internal/email"
	"gymflex/internal/logger"
	"gymflex/internal/server"
)

const shutdownTimeout = 30 * time.Second

// @title GymFlex API
// @version 1.0
// @description Backend for the GymFlex gym booking platform: sessions, wallet payments, QR check-in passes and door scanning.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("GymFlex starting")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Database connect: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Migrations: %v", err)
	}
	logger.Info("Database ready")

	emailService := email.New(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.RedisAddr,
	)
	defer emailService.Close()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go emailService.Start(workerCtx)

	srv := server.New(database, cfg, emailService)

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Listening on :%s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Infof("Received %v, shutting down", sig)
	case err := <-serverErr:
		logger.Errorf("Server failed: %v", err)
	}

	// Stop accepting new work, then drain in-flight requests. The email
	// worker finishes its current send before exiting.
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown: %v", err)
	}

	logger.Info("Stopped")
}
