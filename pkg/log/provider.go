package log

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"
)

// zerologLogger adapts zerolog.Logger to the Logger interface.
type zerologLogger struct {
	z zerolog.Logger
}

func newZerologLogger(z zerolog.Logger) *zerologLogger {
	return &zerologLogger{z: z}
}

func (l *zerologLogger) event(level Level) *zerolog.Event {
	switch level {
	case LevelDebug:
		return l.z.Debug()
	case LevelWarn:
		return l.z.Warn()
	case LevelError:
		return l.z.Error()
	default:
		return l.z.Info()
	}
}

func (l *zerologLogger) log(level Level, msg string, fields ...any) {
	ev := l.event(level)
	for i := 0; i+1 < len(fields); i += 2 {
		key, _ := fields[i].(string)
		value := fields[i+1]
		if err, ok := value.(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		if marshaler, ok := value.(zerolog.LogObjectMarshaler); ok {
			ev = ev.Object(key, marshaler)
			continue
		}
		ev = ev.Interface(key, value)
	}
	ev.Msg(msg)
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.log(LevelDebug, msg, fields...) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.log(LevelInfo, msg, fields...) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.log(LevelWarn, msg, fields...) }
func (l *zerologLogger) Error(msg string, fields ...any) { l.log(LevelError, msg, fields...) }

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.z.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, _ := fields[i].(string)
		value := fields[i+1]
		if err, ok := value.(error); ok {
			ctx = ctx.AnErr(key, err)
			continue
		}
		ctx = ctx.Interface(key, value)
	}
	return newZerologLogger(ctx.Logger())
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return l.z.GetLevel() <= toZerologLevel(level)
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// defaultProvider is the process-wide LoggerProvider used by GetLogger and
// GetLoggerWithName. It is backed by zerolog writing newline-delimited JSON
// to stderr.
type defaultProvider struct {
	base zerolog.Logger
}

var globalProvider LoggerProvider = &defaultProvider{
	base: zerolog.New(os.Stderr).With().Timestamp().Logger(),
}

func (p *defaultProvider) GetLogger() Logger {
	return newZerologLogger(p.base)
}

func (p *defaultProvider) GetLoggerWithName(name string) Logger {
	return newZerologLogger(p.base.With().Str(ComponentKey, name).Logger())
}

func (p *defaultProvider) SetLevel(level Level) {
	p.base = p.base.Level(toZerologLevel(level))
}

// SetProvider replaces the process-wide LoggerProvider, e.g. with a
// TestLoggerProvider in tests.
func SetProvider(provider LoggerProvider) {
	globalProvider = provider
}

// GetLogger returns the default logger instance.
func GetLogger() Logger {
	return globalProvider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with the given component name,
// e.g. "dataset.bundler" or "dataset.histogram".
func GetLoggerWithName(name string) Logger {
	return globalProvider.GetLoggerWithName(name)
}

// SetLevel sets the minimum log level on the process-wide provider.
func SetLevel(level Level) {
	globalProvider.SetLevel(level)
}

// init wires pkg/errors.Warn to route through the default logger, the same
// way the teacher resolves the circular import between pkg/errors and
// pkg/log via SetZerologWarnFunc.
func init() {
	gbterrors.SetZerologWarnFunc(func(w error) {
		logger := GetLoggerWithName("errors")
		if marshaler, ok := w.(zerolog.LogObjectMarshaler); ok {
			logger.Warn(w.Error(), "warning", marshaler)
			return
		}
		logger.Warn(w.Error())
	})
}
