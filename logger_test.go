package mesher

import (
	"io"
	"log/slog"
	"os"
)

// Tests log at debug level, MESHER_TEST_QUIET mutes them
func init() {
	var out io.Writer = os.Stderr
	if os.Getenv("MESHER_TEST_QUIET") != "" {
		out = io.Discard
	}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	slog.SetDefault(slog.New(handler))
}
