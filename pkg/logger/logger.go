// Package logger provides the structured logger used throughout the
// compiler core, backed by github.com/charmbracelet/log. It is the only
// ambient observability concern the core carries (SPEC_FULL.md §2): the
// core never exports metrics, only logs.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
)

// LogLevel is a string-typed log level, convertible to charmbracelet/log's
// integer levels via ToCharmlogLevel.
type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	DisabledLevel LogLevel = "disabled"
)

// ToCharmlogLevel converts l to the equivalent charmbracelet/log level.
// Unrecognized levels default to InfoLevel.
func (l LogLevel) ToCharmlogLevel() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	case DisabledLevel:
		return charmlog.Level(1000)
	default:
		return charmlog.InfoLevel
	}
}

// Config configures a Logger created by NewLogger.
type Config struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns the production default: Info level, stdout, text
// formatting.
func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stdout,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// TestConfig returns a config suitable for test suites: logging disabled,
// output discarded.
func TestConfig() *Config {
	return &Config{
		Level:      DisabledLevel,
		Output:     io.Discard,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// IsTestEnvironment reports whether the process is running under `go test`.
func IsTestEnvironment() bool {
	if testing.Testing() {
		return true
	}
	return strings.HasSuffix(os.Args[0], ".test")
}

// Logger is the structured logging interface every component accepts
// (typically via context, see FromContext/ContextWithLogger).
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

type charmLogger struct {
	l *charmlog.Logger
}

// NewLogger builds a Logger from config. A nil config uses DefaultConfig,
// unless the process is running under `go test`, in which case TestConfig
// is used so test output stays quiet by default.
func NewLogger(config *Config) Logger {
	if config == nil {
		if IsTestEnvironment() {
			config = TestConfig()
		} else {
			config = DefaultConfig()
		}
	}
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	opts := charmlog.Options{
		Level:           config.Level.ToCharmlogLevel(),
		ReportTimestamp: true,
		TimeFormat:      config.TimeFormat,
		ReportCaller:    config.AddSource,
	}
	if config.JSON {
		opts.Formatter = charmlog.JSONFormatter
	}
	l := charmlog.NewWithOptions(out, opts)
	return &charmLogger{l: l}
}

func (c *charmLogger) Debug(msg string, kv ...any) { c.l.Debug(msg, kv...) }
func (c *charmLogger) Info(msg string, kv ...any)  { c.l.Info(msg, kv...) }
func (c *charmLogger) Warn(msg string, kv ...any)  { c.l.Warn(msg, kv...) }
func (c *charmLogger) Error(msg string, kv ...any) { c.l.Error(msg, kv...) }

func (c *charmLogger) With(kv ...any) Logger {
	return &charmLogger{l: c.l.With(kv...)}
}

type ctxKey string

// LoggerCtxKey is the context key FromContext/ContextWithLogger store
// under.
const LoggerCtxKey ctxKey = "wfc_logger"

// ContextWithLogger returns a copy of ctx carrying l, retrievable via
// FromContext.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, l)
}

// FromContext returns the Logger stored in ctx, or a freshly constructed
// default Logger when ctx carries none (or a value of the wrong type).
func FromContext(ctx context.Context) Logger {
	if v := ctx.Value(LoggerCtxKey); v != nil {
		if l, ok := v.(Logger); ok && l != nil {
			return l
		}
	}
	return NewLogger(nil)
}
