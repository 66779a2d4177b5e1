package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ydb-platform/ydb-go-tagpool/log"
)

var _ log.Logger = (*zapLogger)(nil)

// zapLogger writes pool events to zap
type zapLogger struct {
	l *zap.Logger
}

func newLogger(l *zap.Logger) *zapLogger {
	return &zapLogger{l: l}
}

func newZap(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build(zap.AddStacktrace(zapcore.PanicLevel))
	if err != nil {
		return nil, fmt.Errorf("error create logger: %w", err)
	}

	return logger, nil
}

func (z *zapLogger) Log(ctx context.Context, msg string, fields ...log.Field) {
	l := z.l
	if names := log.NamesFromContext(ctx); len(names) > 0 {
		l = l.Named(strings.Join(names, "."))
	}

	zfields := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zfields = append(zfields, zapField(f))
	}

	switch log.LevelFromContext(ctx) {
	case log.TRACE, log.DEBUG:
		l.Debug(msg, zfields...)
	case log.INFO:
		l.Info(msg, zfields...)
	case log.WARN:
		l.Warn(msg, zfields...)
	case log.ERROR, log.FATAL:
		l.Error(msg, zfields...)
	default:
	}
}

func zapField(f log.Field) zap.Field {
	switch f.Type() {
	case log.IntType:
		return zap.Int(f.Key(), f.IntValue())
	case log.Int64Type:
		return zap.Int64(f.Key(), f.Int64Value())
	case log.StringType:
		return zap.String(f.Key(), f.StringValue())
	case log.BoolType:
		return zap.Bool(f.Key(), f.BoolValue())
	case log.DurationType:
		return zap.Duration(f.Key(), f.DurationValue())
	case log.StringsType:
		return zap.Strings(f.Key(), f.StringsValue())
	case log.ErrorType:
		return zap.NamedError(f.Key(), f.ErrorValue())
	case log.StringerType:
		return zap.String(f.Key(), f.String())
	default:
		return zap.Any(f.Key(), f.AnyValue())
	}
}
