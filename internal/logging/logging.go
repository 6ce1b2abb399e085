// Package logging writes cranio's structured logs to a rotating file so the
// terminal stays free for the recorder.
package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 10
	maxBackups = 5
	maxAgeDays = 90
)

// Logger is a slog.Logger backed by a rotating log file.
type Logger struct {
	*slog.Logger
	w io.WriteCloser
}

// New opens the log file at path and returns a JSON logger writing to it.
// The logger also becomes the slog default.
func New(path string, level slog.Level) *Logger {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	l := &Logger{
		Logger: slog.New(newHandler(w, level)),
		w:      w,
	}

	slog.SetDefault(l.Logger)

	return l
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceTimeAttr,
	})
}

// replaceTimeAttr records times in local time with millisecond precision.
func replaceTimeAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.String(slog.TimeKey, a.Value.Time().Local().Format("2006-01-02T15:04:05.000"))
	}

	return a
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}

	return l.w.Close()
}
