// Package logger sets up structured logging for the server binary.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout. IOTLEDGER_LOG_LEVEL
// selects the minimum level (debug, info, warn, error); default is info.
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("IOTLEDGER_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
