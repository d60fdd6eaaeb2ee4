package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server"
	"github.com/dmitrijs2005/erm/internal/server/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		return 2
	}

	logger, err := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Printf("logger error: %v", err)
		return 2
	}
	if z, ok := logger.(*logging.ZapLogger); ok {
		defer func() { _ = z.Sync() }()
	}

	ctx := context.Background()

	// The seed step reports a missing password only if it still has to run.
	if err := cfg.ResolveBootstrapPassword(os.Stdin, os.Stdout); err != nil && !errors.Is(err, config.ErrNoBootstrapPassword) {
		logger.Error(ctx, "bootstrap password", "error", err)
		return 1
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "init failed", "error", err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "app failed", "error", err)
		return 1
	}
	return 0
}
