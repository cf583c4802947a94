package framework

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggingConfig controls the process-wide structured logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error". Empty means "info".
	Level string
	// FilePath, if set, adds a rotating log file that always records at debug level.
	FilePath string
	// Console is where console output goes. Defaults to os.Stderr.
	Console io.Writer
}

// ParseLogLevel converts a level name into a slog.Level.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// SetupLogging installs the default slog logger and redirects the standard library logger
// into it. The returned function closes the log file, if any.
func SetupLogging(config LoggingConfig) (func() error, error) {
	level, err := ParseLogLevel(config.Level)
	if err != nil {
		return nil, err
	}
	console := config.Console
	if console == nil {
		console = os.Stderr
	}
	handler := &multiHandler{
		handlers: []slog.Handler{
			tint.NewHandler(console, &tint.Options{
				Level:      level,
				TimeFormat: time.TimeOnly,
			}),
		},
	}
	closer := func() error { return nil }
	if config.FilePath != "" {
		lumber := &lumberjack.Logger{
			Filename: config.FilePath,
			MaxSize:  50,
			Compress: true,
		}
		handler.handlers = append(handler.handlers, tint.NewHandler(lumber, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}))
		closer = lumber.Close
	}
	slog.SetDefault(slog.New(handler))

	// some dependencies still write through the standard logger
	lw := &slogWriter{}
	log.Default().SetOutput(lw)
	log.SetFlags(0)
	return closer, nil
}

type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sub := range h.handlers {
		if sub.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, sub := range h.handlers {
		if !sub.Enabled(ctx, r.Level) {
			continue
		}
		if err := sub.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	ret := &multiHandler{handlers: make([]slog.Handler, 0, len(h.handlers))}
	for _, sub := range h.handlers {
		ret.handlers = append(ret.handlers, sub.WithAttrs(attrs))
	}
	return ret
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	ret := &multiHandler{handlers: make([]slog.Handler, 0, len(h.handlers))}
	for _, sub := range h.handlers {
		ret.handlers = append(ret.handlers, sub.WithGroup(name))
	}
	return ret
}

type slogWriter struct{}

func (w *slogWriter) Write(p []byte) (int, error) {
	slog.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
