// Package logger provides a global, context-aware Sugared Zap logger. Logs
// are emitted as JSON to stdout; when a span is active on the context, its
// trace and span ids are attached to every entry, and when an OpenTelemetry
// LoggerProvider is registered the entries are also forwarded through the
// otelzap bridge.
package logger

import (
	"context"
	"os"
	"sync"

	"github.com/RegisGraptin/whalewatch/internal/pkg/telemetry"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ctxKeyType is the private type used to store a derived logger on a context.
type ctxKeyType struct{}

var (
	// ctxKey is the context key under which a derived logger is stored.
	ctxKey ctxKeyType

	// baseLogger is the global SugaredLogger. It is set once by Init.
	baseLogger *zap.SugaredLogger

	// initBaseLoggerOnce guards the one-time setup of baseLogger.
	initBaseLoggerOnce sync.Once
)

// Init configures the global logger at the given minimum level ("debug",
// "info", "warn", "error", "panic", "fatal"). Only the first successful call
// has any effect. It returns an error if the level cannot be parsed.
func Init(level string) error {
	parsedLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	initBaseLoggerOnce.Do(func() {
		cores := []zapcore.Core{
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				parsedLevel,
			),
		}

		// Forward entries to the telemetry backend when one is configured.
		if lp := telemetry.LoggerProvider(); lp != nil {
			cores = append(cores, otelzap.NewCore("", otelzap.WithLoggerProvider(lp)))
		}

		baseLogger = zap.New(zapcore.NewTee(cores...)).Sugar()
	})

	return nil
}

// Sync flushes any buffered log entries. Call it on shutdown.
func Sync() error {
	return baseLogger.Sync()
}

// deriveFromCtx resolves the logger for the given context: the one previously
// stored by Derive when present, otherwise the global logger. Trace and span
// ids of an active span are attached, followed by the given key/value pairs.
func deriveFromCtx(ctx context.Context, keysAndValues ...any) *zap.SugaredLogger {
	l, ok := ctx.Value(ctxKey).(*zap.SugaredLogger)
	if !ok {
		l = baseLogger
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() || sc.HasSpanID() {
		if sc.HasTraceID() {
			l = l.With("trace.id", sc.TraceID().String())
		}
		if sc.HasSpanID() {
			l = l.With("span.id", sc.SpanID().String())
		}
	}

	if len(keysAndValues) > 0 {
		l = l.With(keysAndValues...)
	}

	return l
}

// Derive returns a child context whose logger carries the given key/value
// pairs. Subsequent log calls with the derived context include them.
func Derive(ctx context.Context, keysAndValues ...any) context.Context {
	return context.WithValue(ctx, ctxKey, deriveFromCtx(ctx, keysAndValues...))
}

func log(ctx context.Context, level zapcore.Level, msg string, keysAndValues ...any) {
	deriveFromCtx(ctx).Logw(level, msg, keysAndValues...)
}

// Debug logs a debug-level message with optional key/value context.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.DebugLevel, msg, keysAndValues...)
}

// Info logs an info-level message with optional key/value context.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.InfoLevel, msg, keysAndValues...)
}

// Warn logs a warn-level message with optional key/value context.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.WarnLevel, msg, keysAndValues...)
}

// Error logs an error-level message with optional key/value context.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.ErrorLevel, msg, keysAndValues...)
}

// Panic logs a panic-level message and then panics.
func Panic(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.PanicLevel, msg, keysAndValues...)
}

// Fatal logs a fatal-level message and then exits the process.
func Fatal(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.FatalLevel, msg, keysAndValues...)
}
