package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jshell/internal/server/api"
	"jshell/internal/server/config"
	"jshell/internal/server/database"
	"jshell/internal/server/service"
	"jshell/internal/server/storage"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"port", cfg.Port,
		"audit_log", cfg.DatabaseURL != "",
		"session_ttl", cfg.SessionTTL,
		"token_ttl", cfg.TokenTTL,
		"max_sessions", cfg.MaxSessions,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The audit log is optional; without it sessions still work but have
	// no history.
	var (
		db    *database.DB
		audit service.AuditLog
	)
	if cfg.DatabaseURL != "" {
		db, err = database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrations complete")
		audit = database.NewRepository(db)
	} else {
		slog.Warn("DATABASE_URL not set, command history disabled")
	}

	store := storage.NewMemoryStore(cfg.MaxSessions)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	svc := service.NewSessionService(store, audit, tokens, cfg)

	var closer storage.SessionCloser
	if audit != nil {
		closer = audit
	}
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	cleanup := storage.NewCleanupService(store, closer, cfg.CleanupInterval)
	cleanup.Start(cleanupCtx)

	handler := api.NewHandler(svc, db)
	e := api.SetupRouter(cleanupCtx, handler, cfg)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	cleanupCancel()
	cleanup.Wait()

	slog.Info("server exited cleanly")
}
