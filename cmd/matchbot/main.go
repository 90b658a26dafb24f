package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/reddit-matchbot/internal/app"
	"github.com/nimasrn/reddit-matchbot/internal/config"
	"github.com/nimasrn/reddit-matchbot/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer logger.Sync()

	err := config.Load(app.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Bot started", "at", time.Now().Format(time.DateTime), "version", version, "commit", commit, "date", date)
	if _, err := app.Run(ctx, config.Get(), app.ImmediateVariant()); err != nil {
		logger.Error("Fatal error", "error", err)
		return 1
	}
	logger.Info("Bot finished", "at", time.Now().Format(time.DateTime))
	return 0
}
