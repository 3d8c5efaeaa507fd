// Command server runs the blog.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config for the variables. SESSION_SECRET is the only one without a
// default.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/blog/internal/config"
	"github.com/sakif/blog/internal/logger"
	"github.com/sakif/blog/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			log.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(*cfg, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(context.Background()); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
