// Package logging builds the zerolog logger shared by the client components.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// SinkScreen writes human-readable lines to stderr.
const SinkScreen = "screen"

// Level names accepted besides the zerolog ones.
const (
	LevelNotification = "NOTIFICATION"
	LevelWarning      = "WARNING"
	LevelError        = "ERROR"
	LevelNone         = "NONE"
)

// ParseLevel maps a level name to a zerolog level. An empty name means
// NOTIFICATION.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", LevelNotification:
		return zerolog.InfoLevel, nil
	case LevelWarning:
		return zerolog.WarnLevel, nil
	case LevelError:
		return zerolog.ErrorLevel, nil
	case LevelNone:
		return zerolog.Disabled, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

// New returns a logger for level writing to sink: "screen" (or empty) for
// the console, anything else is a file path opened for appending. The
// returned closer releases the file and is a no-op for the console.
func New(level, sink string) (zerolog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch sink {
	case "", SinkScreen:
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	default:
		f, err := os.OpenFile(sink, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), closer, nil
}

// Force writes msg regardless of the logger's level, unless logging is
// disabled altogether.
func Force(logger zerolog.Logger, msg string) {
	logger.Log().Msg(msg)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
