// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON logger writing to stdout and, when file is set, to a
// size-rotated log file. The returned closer flushes and closes the file.
func New(stdout io.Writer, level slog.Level, file string) (*slog.Logger, io.Closer) {
	w := stdout
	var closer io.Closer = nopCloser{}
	if file != "" {
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			LocalTime:  true,
		}
		w = io.MultiWriter(stdout, lj)
		closer = lj
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
