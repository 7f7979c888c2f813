// Package logging builds the process-wide slog logger: a text or JSON
// handler on stderr, optionally teed into a size-rotated log file.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
)

// LoggerName is attached to every record as the "logger" attribute.
const LoggerName = "sharepoint_api"

// Options configures New. Zero values give info-level text on stderr.
type Options struct {
	Level      slog.Level
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	JSON       bool

	// Stderr replaces os.Stderr, mainly for tests.
	Stderr io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the configured logger and a Closer for the log file. The
// Closer is always non-nil.
func New(opts Options) (*slog.Logger, io.Closer) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	handlers := []slog.Handler{newHandler(stderr, opts.JSON, handlerOpts)}

	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		// The file always gets JSON so it stays machine-readable.
		handlers = append(handlers, slog.NewJSONHandler(file, handlerOpts))
		closer = file
	}

	var h slog.Handler = handlers[0]
	if len(handlers) > 1 {
		h = fanout(handlers)
	}

	return slog.New(h).With(slog.String("logger", LoggerName)), closer
}

func newHandler(w io.Writer, json bool, opts *slog.HandlerOptions) slog.Handler {
	if json {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Err returns an "error" attribute, or an empty group (dropped by the
// handlers) when err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}

	return slog.String("error", err.Error())
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error

	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}

	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}

	return out
}
