// Package logging provides runtime.Logger implementations for code running
// outside the Nakama server.
package logging

import (
	"fmt"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.SugaredLogger to runtime.Logger.
type ZapLogger struct {
	sugar  *zap.SugaredLogger
	fields map[string]interface{}
}

var _ runtime.Logger = (*ZapLogger)(nil)

// NewZapLogger builds a logger. environment "production" selects the JSON
// encoder; anything else uses the console encoder. level is a zap level name.
func NewZapLogger(environment, level string) (*ZapLogger, error) {
	var cfg zap.Config
	if strings.EqualFold(environment, "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	// Skip the adapter frame so callers show up in the caller field.
	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return FromZap(base), nil
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar(), fields: map[string]interface{}{}}
}

func (l *ZapLogger) Debug(format string, v ...interface{}) { l.sugar.Debugf(format, v...) }
func (l *ZapLogger) Info(format string, v ...interface{})  { l.sugar.Infof(format, v...) }
func (l *ZapLogger) Warn(format string, v ...interface{})  { l.sugar.Warnf(format, v...) }
func (l *ZapLogger) Error(format string, v ...interface{}) { l.sugar.Errorf(format, v...) }

func (l *ZapLogger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

func (l *ZapLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		merged[k] = v
		args = append(args, k, v)
	}
	return &ZapLogger{sugar: l.sugar.With(args...), fields: merged}
}

func (l *ZapLogger) Fields() map[string]interface{} {
	return l.fields
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})                       {}
func (nopLogger) Info(string, ...interface{})                        {}
func (nopLogger) Warn(string, ...interface{})                        {}
func (nopLogger) Error(string, ...interface{})                       {}
func (nopLogger) WithField(string, interface{}) runtime.Logger       { return nopLogger{} }
func (nopLogger) WithFields(map[string]interface{}) runtime.Logger   { return nopLogger{} }
func (nopLogger) Fields() map[string]interface{}                     { return nil }

// Nop returns a logger that discards everything.
func Nop() runtime.Logger {
	return nopLogger{}
}
