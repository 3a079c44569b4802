// Package logging configures structured slog output for inputprefs tools.
//
// Logs go to stderr, a size-rotated file, or both, as text or JSON. Every
// record carries a component attribute; commit-scoped loggers add a request id.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Level represents a logging level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format represents the output format for logs.
type Format int

const (
	// FormatText outputs human-readable text logs.
	FormatText Format = iota
	// FormatJSON outputs JSON-structured logs.
	FormatJSON
)

// Config holds the logging configuration.
type Config struct {
	Level  Level
	Format Format

	// Output is "stderr", "file" or "both".
	Output string

	// FilePath is the log file used when Output includes a file.
	FilePath string

	// MaxSizeMB is the size a log file may reach before it is rotated.
	MaxSizeMB int64

	// MaxBackups is the number of rotated files kept.
	MaxBackups int

	AddSource bool

	// Component is attached to every record.
	Component string
}

// DefaultConfig returns a default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     "stderr",
		FilePath:   defaultLogPath(),
		MaxSizeMB:  10,
		MaxBackups: 3,
		Component:  "inputctl",
	}
}

// defaultLogPath returns the platform-specific default log path.
func defaultLogPath() string {
	switch runtime.GOOS {
	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Logs", "inputprefs", "inputprefs.log")
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		return filepath.Join(appData, "inputprefs", "logs", "inputprefs.log")
	default:
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			homeDir, _ := os.UserHomeDir()
			stateHome = filepath.Join(homeDir, ".local", "state")
		}
		return filepath.Join(stateHome, "inputprefs", "inputprefs.log")
	}
}

// Logger wraps slog.Logger and owns the log file, if any.
type Logger struct {
	*slog.Logger
	config  *Config
	rotator *FileRotator
}

// New creates a Logger from cfg; a nil cfg means DefaultConfig.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Logger{config: cfg}

	var writers []io.Writer
	switch strings.ToLower(cfg.Output) {
	case "file", "both":
		rotator, err := NewFileRotator(cfg)
		if err != nil {
			return nil, fmt.Errorf("setup log file: %w", err)
		}
		l.rotator = rotator
		writers = append(writers, rotator)
		if strings.EqualFold(cfg.Output, "both") {
			writers = append(writers, os.Stderr)
		}
	default:
		writers = append(writers, os.Stderr)
	}

	w := writers[0]
	if len(writers) > 1 {
		w = io.MultiWriter(writers...)
	}
	l.Logger = slog.New(newHandler(w, cfg))
	return l, nil
}

// NewWriter creates a Logger that writes to w, ignoring cfg.Output.
func NewWriter(w io.Writer, cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Logger{Logger: slog.New(newHandler(w, cfg)), config: cfg}
}

func newHandler(w io.Writer, cfg *Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	if cfg.Component != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("component", cfg.Component)})
	}
	return handler
}

// SetDefault installs l as the process-wide slog default.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}

// RequestIDKey is the attribute carrying a request id.
const RequestIDKey = "request_id"

// WithRequestID returns logger tagged with a request id. Packages that take a
// plain *slog.Logger use it to scope one operation's records.
func WithRequestID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With(slog.String(RequestIDKey, id))
}

// WithRequestID returns a logger that tags records with a request id.
func (l *Logger) WithRequestID(id string) *Logger {
	return &Logger{
		Logger:  WithRequestID(l.Logger, id),
		config:  l.config,
		rotator: l.rotator,
	}
}

// WithComponent returns a logger for a sub-component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(slog.String("component", name)),
		config:  l.config,
		rotator: l.rotator,
	}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// ParseLevel parses a string into a log level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// ParseFormat parses "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s", s)
	}
}

// LevelString returns the string representation of a log level.
func LevelString(level Level) string {
	switch level {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}
