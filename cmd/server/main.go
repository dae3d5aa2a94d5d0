// Package main is the entry point for the github-wrapped server.
//
// The main package stays minimal — its job is to:
// 1. Set up logging
// 2. Load configuration
// 3. Create and start the server
//
// All actual logic lives in imported packages (internal/server,
// internal/service, ...), which keeps the app testable.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/github-wrapped/internal/config"
	"github.com/sakif/github-wrapped/internal/server"
)

func main() {
	// === 1. SET UP LOGGING ===
	// Structured logs via slog. In production you'd raise the level to Info
	// or Warn; Debug is useful while watching pipeline runs.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// === 2. LOAD CONFIGURATION ===
	// Env vars override the optional config.yaml; credentials (GITHUB_TOKEN,
	// OPENAI_API_KEY) must come from the environment.
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. ENSURE THE DATA DIRECTORY EXISTS ===
	// SQLite creates the file itself but not its parent directory.
	if cfg.Database.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until shutdown (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
