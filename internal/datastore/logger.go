package datastore

import (
	"log/slog"
	"os"

	"github.com/fieldrec/fieldrec-go/internal/logging"
)

// Package-level logger for datastore related events
var dsLogger *slog.Logger

func init() {
	var err error
	dsLogger, _, err = logging.NewFileLogger("logs/datastore.log", "datastore", slog.LevelInfo)
	if err != nil {
		dsLogger = slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", "datastore")
	}
}

// ensureDir creates a directory for the database file if missing.
func ensureDir(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		dsLogger.Error("Failed to create database directory", "dir", dir, "error", err)
	}
}
