package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rosterhub/platform/internal/app"
	"github.com/rosterhub/platform/internal/auth"
	"github.com/rosterhub/platform/internal/infra"
	"github.com/rosterhub/platform/internal/licensing"
	"github.com/rosterhub/platform/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Apply migrations
	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Connect to Postgres
	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	// Parse JWT expiry durations
	memberExpiry, err := time.ParseDuration(cfg.JWTMemberExpiry)
	if err != nil {
		return fmt.Errorf("parse member JWT expiry: %w", err)
	}
	staffExpiry, err := time.ParseDuration(cfg.JWTStaffExpiry)
	if err != nil {
		return fmt.Errorf("parse staff JWT expiry: %w", err)
	}
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, memberExpiry, staffExpiry)

	// Router and services
	router, services := app.NewRouter(app.RouterDeps{
		Pool:          pool,
		JWTMgr:        jwtMgr,
		Logger:        logger,
		AllowedOrigin: cfg.CORSAllowedOrigins,
	})

	// Bootstrap staff account from config on a fresh deployment
	if err := services.Accounts.EnsureStaffAccount(ctx, cfg.StaffEmail, cfg.StaffPassword); err != nil {
		return fmt.Errorf("ensure staff account: %w", err)
	}

	// Outbox poller publishes committed events to Kafka
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	outboxRepo := repository.NewOutboxRepository()
	poller := infra.NewOutboxPoller(pool, outboxRepo, producer, logger)
	poller.Start(ctx)

	// Expiry sweeper downgrades teams past their license expiry
	sweeper := licensing.NewSweeper(pool, repository.NewTeamRepository(), outboxRepo, logger)
	sweeper.Start(ctx)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
