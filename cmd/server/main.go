package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "rental-marketplace-backend/internal/api/http"
	"rental-marketplace-backend/internal/bootstrap"
	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/scheduler"
	"rental-marketplace-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withScheduler := flag.Bool("with-scheduler", true, "Run the cron scheduler inside the server process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Marketplace Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "mode", cfg.Server.Mode, "store", cfg.Store.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	app.Start(context.WithoutCancel(ctx))

	// Initialize Scheduler
	var cronScheduler *scheduler.Scheduler
	if *withScheduler {
		cronScheduler, err = scheduler.NewScheduler(app.Jobs)
		if err != nil {
			app.Close()
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	router := httpapi.NewRouter(httpapi.Services{
		User:         app.Services.User,
		Property:     app.Services.Property,
		Application:  app.Services.Application,
		Lease:        app.Services.Lease,
		Payment:      app.Services.Payment,
		Notification: app.Services.Notification,
		Stats:        app.Services.Stats,
		Hub:          app.Hub,
	}, tokenManager, cfg.IsDevelopment())

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}

	// Graceful shutdown: stop taking requests, then stop jobs, then drain events.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	app.Close()
	logger.Info("Server stopped. Goodbye!")
}
