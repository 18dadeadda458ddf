package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewLogger creates the diagnostic logger. Format "text" and "json" force a
// handler; anything else picks text when w is a terminal and JSON when it
// is piped or redirected.
//
// Callers scope the logger via With():
//
//	logger := cli.NewLogger(os.Stderr, slog.LevelInfo, "auto").With(
//	    "invocation", id,
//	)
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch {
	case format == "json":
		handler = slog.NewJSONHandler(w, options)
	case format == "text" || isTerminal(w):
		handler = slog.NewTextHandler(w, options)
	default:
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name (debug, info, warn, error) to a slog
// level. An empty name means warn.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
