// Package main is the entry point for the stashd savings engine.
// The application manages moneyboxes, distributes a monthly savings
// amount across them and keeps an immutable record of every movement.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeil/stashd/internal/config"
	"github.com/akeil/stashd/internal/di"
	"github.com/akeil/stashd/internal/scheduler"
	"github.com/akeil/stashd/internal/server"
	"github.com/akeil/stashd/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Load configuration from environment variables
// 2. Initialize logging
// 3. Wire dependencies (database, repositories, services, jobs)
// 4. Start the scheduler with the automated savings wake loop
// 5. Start the HTTP server
// 6. Wait for shutdown signal and shut down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting stashd")

	// Wire all dependencies using DI container.
	// This migrates and provisions the database, then builds the
	// repositories, services and job instances on top of it.
	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// Close the store on exit so the final WAL checkpoint is written.
	defer container.Store.Close()

	// The wake schedule decides how often the savings job checks
	// whether today is a distribution day. The job itself guards
	// against running twice on the same calendar day, so waking more
	// often than daily is safe.
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.WakeSchedule, jobs.AutomatedSavings); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.WakeSchedule).Msg("Failed to register automated savings job")
	}
	if err := sched.AddJob("@daily", jobs.StoreMaintenance); err != nil {
		log.Fatal().Err(err).Msg("Failed to register store maintenance job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Store:     container.Store,
		Config:    cfg,
		DevMode:   cfg.DevMode,
		Container: container,
	})

	// Start server in goroutine so the main thread can wait for signals.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the scheduler first so no new cycle starts mid-shutdown;
	// Stop waits for a running job to finish.
	sched.Stop()

	// Graceful shutdown with 10 second timeout for in-flight requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
