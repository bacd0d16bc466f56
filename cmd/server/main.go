// Command server runs the YSWS Hunt HTTP API.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config for the variables.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/ysws-hunt/internal/config"
	"github.com/sakif/ysws-hunt/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
