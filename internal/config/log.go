package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// SetupLogger installs the default slog logger writing to w. Debug records
// are only emitted when Verbose is set.
func SetupLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// SetupFileLogger appends log output to path. The TUI owns the terminal,
// so it logs here instead of stderr. The caller closes the returned file.
func SetupFileLogger(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	SetupLogger(f)
	return f, nil
}
