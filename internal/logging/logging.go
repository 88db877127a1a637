package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	ModeProduction = "prod"
	ModeDebug      = "debug"
)

var logger = zap.NewNop()

// SetLogger replaces the process-wide logger used when a context carries none.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Build creates a zap logger for the given mode. An empty mode is treated as debug.
// If logFilePath is set, logs are duplicated into that file.
func Build(mode, logFilePath string) (*zap.Logger, error) {
	var cfg zap.Config
	switch mode {
	case ModeProduction:
		cfg = zap.NewProductionConfig()
	case ModeDebug, "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown mode %q: only %q, %q or empty are allowed", mode, ModeProduction, ModeDebug)
	}
	if logFilePath != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logFilePath)
	}
	return cfg.Build()
}

type loggingCtxKey int

const (
	logKey = loggingCtxKey(iota)
)

func FromContextS(ctx context.Context) *zap.SugaredLogger {
	return FromContext(ctx).Sugar()
}

func FromContext(ctx context.Context) *zap.Logger {
	if vlog, ok := ctx.Value(logKey).(*zap.Logger); ok && vlog != nil {
		return vlog
	}
	return logger
}

// NewContextS returns a copy of ctx whose logger has the additional key/value fields.
func NewContextS(ctx context.Context, fields ...interface{}) (nctx context.Context) {
	nctx, _ = NewContextSL(ctx, fields...)
	return
}

func NewContextSL(ctx context.Context, fields ...interface{}) (nctx context.Context, slog *zap.SugaredLogger) {
	slog = FromContextS(ctx).With(fields...)
	nctx = context.WithValue(ctx, logKey, slog.Desugar())
	return
}

// WithLogger stores l in ctx as is.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, logKey, l)
}

// CopyContext moves the logger of from into to. Used to detach long work
// from a short-lived request context without losing request fields.
func CopyContext(from, to context.Context) (nctx context.Context) {
	return context.WithValue(to, logKey, FromContext(from))
}
