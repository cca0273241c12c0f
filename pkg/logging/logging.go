// Package logging installs the process-wide slog handler used by the
// bandpoints server and CLI. Output is colored with tint and goes to stderr
// so CLI tables on stdout stay clean.
//
// LOG_LEVEL selects the level: debug, info, warn or error (default info).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options controls the handler built by New.
type Options struct {
	Level   slog.Level
	Writer  io.Writer // defaults to os.Stderr
	NoColor bool
	Source  bool
}

// New returns a tint-backed logger.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      opts.Level,
		TimeFormat: time.Kitchen,
		AddSource:  opts.Source,
		NoColor:    opts.NoColor,
	}))
}

// Setup installs the default logger at the LOG_LEVEL level.
func Setup() {
	SetupWithLevel(LevelFromEnv())
}

// SetupWithLevel installs the default logger at level. Source locations are
// only included at debug level.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(New(Options{
		Level:  level,
		Source: level <= slog.LevelDebug,
	}))
}

// LevelFromEnv reads LOG_LEVEL.
func LevelFromEnv() slog.Level {
	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	return level
}

// ParseLevel maps a level name to a slog level. Unknown names yield info and false.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
