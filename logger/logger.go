package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu sync.RWMutex
	// log writes to stderr so that stdout stays free for the stdio transport.
	log = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)

	out   io.Writer = os.Stderr
	level           = zerolog.InfoLevel
)

// Get returns the process logger.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// EnableDebug enables debug logging on stderr.
func EnableDebug() {
	EnableDebugWithWriter(os.Stderr)
}

// EnableDebugWithWriter enables debug logging and writes to the provided writer.
// Falls back to stderr when writer is nil.
func EnableDebugWithWriter(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	SetOutput(w, zerolog.DebugLevel)
}

// SetOutput replaces the logger sink and minimum level.
func SetOutput(w io.Writer, lvl zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	level = lvl
	log = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Slog returns a log/slog logger writing JSON to the same sink, for
// libraries that accept *slog.Logger.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	lvl := slog.LevelInfo
	switch {
	case level <= zerolog.DebugLevel:
		lvl = slog.LevelDebug
	case level == zerolog.WarnLevel:
		lvl = slog.LevelWarn
	case level >= zerolog.ErrorLevel:
		lvl = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl}))
}

// Debugf formats and writes a debug message if debug logging is enabled.
func Debugf(format string, v ...interface{}) {
	l := Get()
	if e := l.Debug(); e.Enabled() {
		e.Msg(fmt.Sprintf(format, v...))
	}
}
