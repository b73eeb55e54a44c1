// Package logging sets up the debug log and renders band and response tables
// for the headless commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Setup points the default slog logger at path. The editor owns the
// terminal, so logs never go to stdout. With an empty path, or when debug is
// off, logs are discarded. The returned close func is always safe to call.
func Setup(path string, debug bool) (func() error, error) {
	if !debug || path == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return func() error { return nil }, fmt.Errorf("failed to open debug log: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))
	slog.Debug("debug logging enabled", "path", path)
	return f.Close, nil
}
