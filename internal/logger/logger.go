package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lmittmann/tint"

	"github.com/tejaspavanb/DeepFake/internal/config"
)

// Log files kept in the log directory, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
type Logger struct {
	infoLog    *slog.Logger
	warningLog *slog.Logger
	errorLog   *slog.Logger
	logDir     string
	files      []*os.File
	mu         sync.Mutex
}

// NewLogger creates a Logger writing to the configured log directory.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return New(cfg.LogDirectory, ParseLevel(cfg.LogLevel), os.Stdout, os.Stderr)
}

// New creates a Logger with per-level files under logDir. Console output goes
// through a tint handler on stdout (info, warning) and stderr (error).
func New(logDir string, level slog.Level, stdout, stderr io.Writer) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{logDir: logDir}

	infoFile, err := l.openLogFile(InfoFile)
	if err != nil {
		return nil, err
	}
	warningFile, err := l.openLogFile(WarningFile)
	if err != nil {
		l.Close()
		return nil, err
	}
	errorFile, err := l.openLogFile(ErrorFile)
	if err != nil {
		l.Close()
		return nil, err
	}

	l.infoLog = slog.New(fanout{
		console(stdout, level),
		slog.NewTextHandler(infoFile, &slog.HandlerOptions{Level: level}),
	})
	l.warningLog = slog.New(fanout{
		console(stdout, level),
		slog.NewTextHandler(warningFile, &slog.HandlerOptions{Level: level}),
	})
	l.errorLog = slog.New(fanout{
		console(stderr, level),
		slog.NewTextHandler(errorFile, &slog.HandlerOptions{Level: level}),
	})
	return l, nil
}

// NewNop returns a Logger that discards everything and touches no files.
func NewNop() *Logger {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Logger{infoLog: discard, warningLog: discard, errorLog: discard}
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func console(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	})
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(name string) (*os.File, error) {
	path := filepath.Join(l.logDir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	l.files = append(l.files, file)
	return file, nil
}

// Debug writes a formatted debug-level entry to the info log.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Debug(fmt.Sprintf(format, v...))
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Info(fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Warn(fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Error(fmt.Sprintf(format, v...))
}

// Slog exposes the info logger for libraries that take a *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.infoLog
}

// Dir is the directory holding the per-level log files.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	switch fileName {
	case InfoFile, WarningFile, ErrorFile:
	default:
		return fmt.Errorf("unknown log file %q", fileName)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	filePath := filepath.Join(l.logDir, fileName)
	if err := os.Truncate(filePath, 0); err != nil {
		return fmt.Errorf("truncating %s: %w", fileName, err)
	}
	return nil
}

// Close releases the log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
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
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
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
