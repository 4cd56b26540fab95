package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger is the public logger instance accessible from all packages
var Logger *slog.Logger

func init() {
	// Safe default so packages can log before Initialize runs (tests,
	// early startup errors).
	Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Initialize sets up the logger. Server commands log JSON to stderr;
// debug mode additionally lowers the level and honours an optional file
// destination so short-lived CLI invocations stay quiet by default.
func Initialize(debug bool, debugFile string) error {
	// Check environment variables for inherited debug settings
	if os.Getenv("FLOORLINE_DEBUG") == "1" {
		debug = true
	}
	if envDebugFile := os.Getenv("FLOORLINE_DEBUG_FILE"); envDebugFile != "" && debugFile == "" {
		debugFile = envDebugFile
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var w io.Writer = os.Stderr
	if debugFile != "" {
		if err := os.MkdirAll(filepath.Dir(debugFile), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(debugFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		w = f
	}

	Logger = slog.New(slog.NewJSONHandler(w, opts))

	if debug {
		os.Setenv("FLOORLINE_DEBUG", "1")
		if debugFile != "" {
			os.Setenv("FLOORLINE_DEBUG_FILE", debugFile)
		}
	}
	return nil
}
