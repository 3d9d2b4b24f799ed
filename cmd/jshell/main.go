package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"jshell/internal/core"
	"jshell/internal/server/config"
	"jshell/internal/shell"
)

func main() {
	// Command errors already go to stderr; only log below error level on request.
	level := slog.LevelError
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = config.ParseLevel(v)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sh := shell.New(core.New())
	sh.SetRecorder(shell.LogRecorder{Logger: logger})

	if err := sh.Run(ctx, os.Stdin, os.Stdout, os.Stderr); err != nil && ctx.Err() == nil {
		slog.Error("shell stopped", "error", err)
		os.Exit(1)
	}
}
