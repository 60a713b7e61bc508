package main

import (
	"log/slog"
	"os"

	"github.com/phsym/console-slog"
)

const timeFormat string = "2006-01-02 15:04:05.000" // may be time.DateTime

// setDefaultLogger installs console handler writing to stderr,
// as stdout is left for the tools piping mesher output
func setDefaultLogger(level slog.Leveler) {
	handler := console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level:      level,
		TimeFormat: timeFormat,
		AddSource:  level == slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))
}
