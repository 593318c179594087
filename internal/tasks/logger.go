package tasks

import (
	"log/slog"
	"os"

	"github.com/fieldrec/fieldrec-go/internal/logging"
)

// Package-level logger for task events
var taskLogger *slog.Logger

func init() {
	var err error
	taskLogger, _, err = logging.NewFileLogger("logs/tasks.log", "tasks", slog.LevelInfo)
	if err != nil {
		taskLogger = slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", "tasks")
	}
}
