// Package logging sets up the process-wide structured logger. It mirrors
// the source's direct use of log/slog: every subsystem logs through
// slog.Default() with string key/value pairs, no wrapper type.
package logging

import (
	"log/slog"
	"os"
)

// Init installs a text-handler default logger at the given verbosity.
// Called once at process start, before any subsystem logs.
func Init(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
}
