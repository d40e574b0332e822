package logger

import (
	"context"

	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.SugaredLogger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	global = l.Sugar()
}

// SetDebug switches the global logger to development output with debug level.
func SetDebug() {
	cfg := zap.NewDevelopmentConfig()
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	global = l.Sugar()
}

func with(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return global
	}
	if reqID, ok := ctx.Value(constants.CtxKeyRequestID).(string); ok && reqID != "" {
		return global.With("request_id", reqID)
	}
	return global
}

func Info(ctx context.Context, msg string) {
	with(ctx).Info(msg)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	with(ctx).Infof(format, args...)
}

func Error(ctx context.Context, msg string) {
	with(ctx).Error(msg)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	with(ctx).Errorf(format, args...)
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	with(ctx).Debugf(format, args...)
}

// Fatal logs the error and exits. A nil error is ignored so it can wrap
// blocking calls like router.Start directly.
func Fatal(ctx context.Context, err error) {
	if err == nil {
		return
	}
	with(ctx).Fatal(err.Error())
}
