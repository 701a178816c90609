package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/app"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/config"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/pkg/logger"
)

func main() {
	configPath := flag.String("c", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	envPath := flag.String("e", ".env", "path to .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(&cfg.Logger)

	// context + signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// build application
	application, err := app.NewApp(ctx, *cfg, log)
	if err != nil {
		log.Error("app init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// run application
	if err := application.Run(ctx); err != nil {
		log.Error("application stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("crypto-watchlist-bot stopped")
}
