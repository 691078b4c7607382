package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mrlokans/clippings-sync/internal/config"
)

// newLogger logs to stderr and, when configured, appends to the log file.
// A log file that cannot be opened is reported and otherwise ignored.
func newLogger(stderr io.Writer, cfg config.Log) (*slog.Logger, func()) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	out := stderr
	closeFn := func() {}

	if cfg.File != "" {
		f, err := openLogFile(cfg.File)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		} else {
			out = io.MultiWriter(stderr, f)
			closeFn = func() { _ = f.Close() }
		}
	}

	return slog.New(slog.NewTextHandler(out, opts)), closeFn
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
