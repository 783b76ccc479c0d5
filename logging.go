// FILE: lixenwraith/layered/logging.go
package layered

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger creates a JSON slog.Logger writing to w.
// The level is parsed from level; defaults to INFO if invalid or empty.
func NewLogger(level string, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
