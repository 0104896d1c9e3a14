// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level, format and optional rotating file of the default logger.
type Options struct {
	Level  slog.Level
	Format string // "json" or "text"
	File   string // rotated log file written alongside stdout, empty for stdout only
}

// New builds a logger writing to stdout and, when opts.File is set, to a rotated file.
// The returned closer releases the file and is a no-op otherwise.
func New(opts Options, stdout io.Writer) (*slog.Logger, io.Closer) {
	if stdout == nil {
		stdout = os.Stdout
	}

	var (
		writer = stdout
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writer = io.MultiWriter(stdout, rotated)
		closer = rotated
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}
	return slog.New(handler), closer
}

// Setup installs the logger from New as the slog default.
func Setup(opts Options) (*slog.Logger, io.Closer) {
	logger, closer := New(opts, os.Stdout)
	slog.SetDefault(logger)
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
