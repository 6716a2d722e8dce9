package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Subrata270/studio-sub001/infrastructure/config"
	"github.com/Subrata270/studio-sub001/infrastructure/container"
	"github.com/Subrata270/studio-sub001/infrastructure/http/handler"
	"github.com/Subrata270/studio-sub001/infrastructure/http/middleware"
	"github.com/Subrata270/studio-sub001/infrastructure/http/sse"
	"github.com/Subrata270/studio-sub001/infrastructure/scheduler"
	"github.com/Subrata270/studio-sub001/infrastructure/service/jwt"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger
	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		CorrelationIDHeader: cfg.LogCorrelationIDHeader,
		EnableRequestLog:    cfg.LogEnableRequestLog,
		ServiceName:         "subscription-service",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":            cfg.Environment,
		"storage_driver": cfg.StorageDriver,
		"lock_driver":    cfg.LockDriver,
		"rates_source":   cfg.RatesSource,
	})

	app, err := container.New(ctx, cfg, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize application", err, nil)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Close()

	tokenService, err := jwt.NewJWTService(cfg)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize JWT service", err, nil)
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var streamer *sse.Streamer
	if cfg.StreamEnabled {
		streamer = sse.NewStreamer(cfg.StreamHeartbeat, structuredLogger)
		app.UseCases.Dispatcher.SetPublisher(streamer)
	}

	checks := map[string]handler.HealthCheck{}
	for name, check := range app.HealthChecks() {
		checks[name] = check
	}

	uc := app.UseCases
	router := handler.NewRouter(handler.RouterConfig{
		Logger:               structuredLogger,
		CorrelationIDHeader:  cfg.LogCorrelationIDHeader,
		EnableRequestLog:     cfg.LogEnableRequestLog,
		CORSEnabled:          cfg.CORSEnabled,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		CORSAllowCredentials: cfg.CORSAllowCredentials,
		Auth:                 middleware.NewAuthMiddleware(tokenService, app.Repositories.Users, structuredLogger),
		RateLimit:            middleware.NewRateLimitMiddleware(app.RateLimiter(), cfg.RateLimitRequests, cfg.RateLimitWindow, structuredLogger),
		Public:               []handler.RouteRegistrar{handler.NewHealthHandler(checks)},
		API: []handler.RouteRegistrar{
			handler.NewSubscriptionHandler(uc.Engine, uc.Tracker),
			handler.NewNotificationHandler(uc.Dispatcher, streamer),
			handler.NewUserManagementHandler(uc.Users),
			handler.NewAdminHandler(uc.Engine, uc.Tracker, uc.Dispatcher),
		},
	})

	// Event streams stay open, so there is no server-wide write timeout
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	jobs, err := scheduler.NewManager(structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize scheduler", err, nil)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	if err := jobs.RegisterExpiryScan(uc.Tracker, cfg.ScanInterval, cfg.ScanTimeout); err != nil {
		structuredLogger.Error(ctx, "Failed to register expiry scan job", err, nil)
		log.Fatalf("Failed to register expiry scan job: %v", err)
	}
	jobs.Start()

	go func() {
		structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			structuredLogger.Error(ctx, "Server failed to start", err, map[string]interface{}{
				"host": cfg.ServerHost,
				"port": cfg.ServerPort,
			})
			stop()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-runCtx.Done():
	}

	structuredLogger.Info(ctx, "Shutting down server...", nil)
	stop()

	if err := jobs.Stop(); err != nil {
		structuredLogger.Error(ctx, "Scheduler forced to stop", err, nil)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}
