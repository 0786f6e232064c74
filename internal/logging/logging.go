// Package logging holds the diagnostic logger shared by robotharness packages.
//
// Logs are discarded unless debugging is enabled with --debug or
// ROBOT_DEBUG=1. Without an explicit --log-file, each process writes to a new
// uuid-named file under the state directory.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// Logger is the process-wide diagnostic logger. It discards everything until
// Initialize enables debugging.
var Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Initialize configures Logger. It returns the path of the log file in use, or
// an empty string when logging is disabled.
func Initialize(debug bool, logFile string) (string, error) {
	if os.Getenv("ROBOT_DEBUG") == "1" {
		debug = true
	}
	if envFile := os.Getenv("ROBOT_LOG_FILE"); envFile != "" && logFile == "" {
		logFile = envFile
	}

	if !debug && logFile == "" {
		Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
		return "", nil
	}

	if logFile == "" {
		dir, err := logDir()
		if err != nil {
			return "", fmt.Errorf("failed to get log directory: %w", err)
		}
		logFile = filepath.Join(dir, uuid.New().String()+".log")
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}

	Logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Logger.Info("debug logging initialized", "log_file", logFile)
	return logFile, nil
}

func logDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Logs", "robotharness"), nil
	case "linux":
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			stateHome = filepath.Join(homeDir, ".local", "state")
		}
		return filepath.Join(stateHome, "robotharness"), nil
	default:
		return filepath.Join(homeDir, ".robotharness", "logs"), nil
	}
}
