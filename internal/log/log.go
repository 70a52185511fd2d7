// Package log provides a thin structured-logging wrapper around zap so call
// sites never import zap directly. Fields carry a zap.Field under the hood;
// the wrapper exists to keep a single place to attach context-derived fields
// (request id, channel) without threading them through every call site.
package log

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured logging field, aliasing zap's own type.
type Field = zap.Field

var (
	Any      = zap.Any
	String   = zap.String
	Int      = zap.Int
	Bool     = zap.Bool
	Duration = zap.Duration
	Strings  = zap.Strings
)

// Cause logs err under the field name "cause" instead of zap's default
// "error", for call sites that log a failure cause.
func Cause(err error) Field {
	return zap.NamedError("cause", err)
}

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

func init() {
	logger = newDefaultLogger()
}

func newDefaultLogger() *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(os.Stderr), zapcore.InfoLevel)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// SetLogger replaces the global logger. Intended for use from cmd/ wiring at
// startup once the configured level/format is known.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	return logger
}

// hookFields derives extra fields from the context, such as a request id
// stashed there by the HTTP handler. Kept minimal since tracing/metrics
// propagation lives outside this module.
func hookFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}

	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return []Field{zap.String("request_id", id)}
	}

	return nil
}

type requestIDKey struct{}

// WithRequestID stashes a request id in the context so subsequent log calls
// on that context automatically carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	current().Debug(msg, append(hookFields(ctx), fields...)...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	current().Info(msg, append(hookFields(ctx), fields...)...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	current().Warn(msg, append(hookFields(ctx), fields...)...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	current().Error(msg, append(hookFields(ctx), fields...)...)
}

// DebugEnabled reports whether debug-level logging is active, used to skip
// building expensive debug-only fields (e.g. mapping a whole stream).
func DebugEnabled(ctx context.Context) bool {
	return current().Core().Enabled(zapcore.DebugLevel)
}
