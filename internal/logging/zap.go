package logging

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

// Logger emits through zap. Emission is gated by a runtime flag shared by
// every logger derived with With, so tracing can be switched on and off
// while the client runs.
type Logger struct {
	zapLogger *zap.Logger
	level     zap.AtomicLevel
	enabled   *atomic.Bool
}

// Options configures New.
type Options struct {
	Level   Level
	JSON    bool
	Enabled bool
}

// New builds a zap backed Logger writing to stderr.
func New(opts Options) (*Logger, error) {
	level := zap.NewAtomicLevelAt(toZapLevel(opts.Level))
	encoding := "console"
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if opts.JSON {
		encoding = "json"
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	config := zap.Config{
		Level:            level,
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return newLogger(zapLogger, level, opts.Enabled), nil
}

// NewWithCore wraps an existing zap core. Used by tests with an observer core.
func NewWithCore(core zapcore.Core, enabled bool) *Logger {
	return newLogger(zap.New(core), zap.NewAtomicLevelAt(zap.DebugLevel), enabled)
}

func newLogger(z *zap.Logger, level zap.AtomicLevel, enabled bool) *Logger {
	flag := &atomic.Bool{}
	flag.Store(enabled)
	return &Logger{zapLogger: z, level: level, enabled: flag}
}

// SetEnabled switches emission on or off for this logger and all loggers
// derived from it.
func (l *Logger) SetEnabled(on bool) { l.enabled.Store(on) }

// Enabled reports the runtime flag.
func (l *Logger) Enabled() bool { return l.enabled.Load() }

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level Level) { l.level.SetLevel(toZapLevel(level)) }

func (l *Logger) Debug(msg string, fields ...Field) {
	if l.enabled.Load() {
		l.zapLogger.Debug(msg, toZapFields(fields...)...)
	}
}

func (l *Logger) Info(msg string, fields ...Field) {
	if l.enabled.Load() {
		l.zapLogger.Info(msg, toZapFields(fields...)...)
	}
}

func (l *Logger) Warn(msg string, fields ...Field) {
	if l.enabled.Load() {
		l.zapLogger.Warn(msg, toZapFields(fields...)...)
	}
}

func (l *Logger) Error(msg string, fields ...Field) {
	if l.enabled.Load() {
		l.zapLogger.Error(msg, toZapFields(fields...)...)
	}
}

func (l *Logger) With(fields ...Field) Log {
	return &Logger{
		zapLogger: l.zapLogger.With(toZapFields(fields...)...),
		level:     l.level,
		enabled:   l.enabled,
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelInfo:
		return zap.InfoLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func toZapFields(fields ...Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case BoolType:
			zapFields[i] = zap.Bool(f.Key, f.Value.(bool))
		case DurationType:
			zapFields[i] = zap.Duration(f.Key, f.Value.(time.Duration))
		case Float64Type:
			zapFields[i] = zap.Float64(f.Key, f.Value.(float64))
		case IntType:
			zapFields[i] = zap.Int(f.Key, f.Value.(int))
		case StringType:
			zapFields[i] = zap.String(f.Key, f.Value.(string))
		case ErrorType:
			zapFields[i] = zap.NamedError(f.Key, f.Value.(error))
		default:
			zapFields[i] = zap.Any(f.Key, f.Value)
		}
	}
	return zapFields
}
