// Package logging wires the gookit/slog logger shared by the CLI and the
// batch runner.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Logger is the minimal logging surface used across packages.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Fields are structured key/value pairs attached to a log line.
type Fields map[string]any

// Log is the process-wide logger. It discards everything until Init runs.
var Log Logger = slog.NewWithHandlers()

// Options selects where log lines go.
type Options struct {
	Level string
	// File receives JSON lines at Level and above; empty disables file logging.
	File string
	// Console mirrors text lines to the terminal.
	Console bool
}

func levelsFor(name string) slog.Levels {
	if name == "" {
		name = "info"
	}
	logLevel := slog.LevelByName(strings.ToLower(name))

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}
	return levels
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	levels := levelsFor(opts.Level)
	var handlers []slog.Handler

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		fh, err := handler.NewFileHandler(opts.File, handler.WithLogLevels(levels))
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		fh.SetFormatter(slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
			f.Fields = []string{
				slog.FieldKeyDatetime,
				slog.FieldKeyLevel,
				slog.FieldKeyMessage,
			}
			f.Aliases = slog.StringMap{
				slog.FieldKeyDatetime: "datetime",
				slog.FieldKeyLevel:    "level",
				slog.FieldKeyMessage:  "message",
			}
			f.TimeFormat = "2006-01-02T15:04:05"
		}))
		handlers = append(handlers, fh)
	}

	if opts.Console {
		ch := handler.NewConsoleHandler(levels)
		ch.SetFormatter(slog.NewTextFormatter("[{{datetime}}] [{{level}}] {{message}} {{data}}\n"))
		handlers = append(handlers, ch)
	}

	return slog.NewWithHandlers(handlers...), nil
}

// Init replaces Log and returns a function that flushes and closes it.
func Init(opts Options) (func(), error) {
	lg, err := New(opts)
	if err != nil {
		return func() {}, err
	}
	Log = lg
	return func() {
		_ = lg.Flush()
		_ = lg.Close()
	}, nil
}

func InfoWithFields(msg string, fields Fields) {
	if lg, ok := Log.(*slog.Logger); ok {
		lg.WithFields(slog.M(fields)).Info(msg)
		return
	}
	Log.Info(msg)
}

func WarnWithFields(msg string, fields Fields) {
	if lg, ok := Log.(*slog.Logger); ok {
		lg.WithFields(slog.M(fields)).Warn(msg)
		return
	}
	Log.Warn(msg)
}

func ErrorWithFields(msg string, fields Fields) {
	if lg, ok := Log.(*slog.Logger); ok {
		lg.WithFields(slog.M(fields)).Error(msg)
		return
	}
	Log.Error(msg)
}

func DebugWithFields(msg string, fields Fields) {
	if lg, ok := Log.(*slog.Logger); ok {
		lg.WithFields(slog.M(fields)).Debug(msg)
		return
	}
	Log.Debug(msg)
}
