package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
)

// Logger defines a minimal, printf-style logging contract shared by every
// package in the client.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

// Config configures the root file logger.
type Config struct {
	Dir    string    // directory holding karmatch.log; ignored when Output is set
	Level  string    // debug, info, warn, error
	Format string    // text (default) or json
	Output io.Writer // explicit sink, mostly for tests
}

const logFileName = "karmatch.log"

// Root owns the log sink and hands out component-scoped loggers. The terminal
// belongs to the UI, so output never goes to stdout.
type Root struct {
	mu     sync.Mutex
	file   *os.File
	logger *slog.Logger
}

// NewRoot opens the log sink described by cfg. When the log directory cannot
// be created the root falls back to discarding output rather than failing the
// whole client.
func NewRoot(cfg Config) (*Root, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	out := cfg.Output
	var file *os.File
	if out == nil {
		dir := strings.TrimSpace(cfg.Dir)
		if dir == "" {
			return &Root{logger: slog.New(slog.NewTextHandler(io.Discard, opts))}, nil
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		out = f
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &Root{file: file, logger: slog.New(handler)}, nil
}

// Component returns a logger tagged with the component name.
func (r *Root) Component(component string) Logger {
	if r == nil {
		return Nop()
	}
	scoped := r.logger
	if component != "" {
		scoped = scoped.With("component", component)
	}
	return &printfLogger{logger: scoped}
}

// Close releases the log file, if any.
func (r *Root) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

type printfLogger struct {
	logger *slog.Logger
}

func (l *printfLogger) Debug(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *printfLogger) Info(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *printfLogger) Warn(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *printfLogger) Error(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

// WithRequestID tags every line emitted through logger with request_id when
// the logger is backed by a Root. Other loggers are returned unchanged.
func WithRequestID(logger Logger, requestID string) Logger {
	pl, ok := logger.(*printfLogger)
	if !ok || strings.TrimSpace(requestID) == "" {
		return OrNop(logger)
	}
	return &printfLogger{logger: pl.logger.With("request_id", requestID)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
