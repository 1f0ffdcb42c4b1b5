// Package logger provides structured logging for the WaveCard Guard service.
// It exposes a field-based Logger interface backed by zap, with OpenTelemetry
// trace correlation and masking of sensitive field values.
package logger

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wavecard/guard/pkg/constants"
)

// ================================================================================
// Logger Interface
// ================================================================================

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, message string, fields ...Field)

	// Info logs an informational message
	Info(ctx context.Context, message string, fields ...Field)

	// Warn logs a warning message
	Warn(ctx context.Context, message string, fields ...Field)

	// Error logs an error message
	Error(ctx context.Context, message string, err error, fields ...Field)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, message string, err error, fields ...Field)

	// WithFields creates a new logger with additional base fields
	WithFields(fields ...Field) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger
}

// ================================================================================
// Field Type for Structured Logging
// ================================================================================

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Time creates a time field.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Error creates an error field.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any creates a field with any type.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// ================================================================================
// Zap-Backed Implementation
// ================================================================================

type zapLogger struct {
	zl         *zap.Logger
	component  string
	baseFields []Field
}

// New creates a Logger writing JSON to stdout at the given level.
func New(level constants.LogLevel) (Logger, error) {
	zapLevel, err := zapcore.ParseLevel(string(level))
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &zapLogger{zl: zl}, nil
}

// NewDefault creates a logger with default settings (stdout, info level).
func NewDefault() Logger {
	l, err := New(constants.LogLevelInfo)
	if err != nil {
		// zap.NewProductionConfig cannot fail to build with a valid level,
		// but keep a usable logger either way.
		return &zapLogger{zl: zap.NewNop()}
	}
	return l
}

func (l *zapLogger) Debug(ctx context.Context, message string, fields ...Field) {
	l.zl.Debug(message, l.convert(ctx, fields)...)
}

func (l *zapLogger) Info(ctx context.Context, message string, fields ...Field) {
	l.zl.Info(message, l.convert(ctx, fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, message string, fields ...Field) {
	l.zl.Warn(message, l.convert(ctx, fields)...)
}

func (l *zapLogger) Error(ctx context.Context, message string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.zl.Error(message, l.convert(ctx, fields)...)
}

func (l *zapLogger) Fatal(ctx context.Context, message string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.zl.Fatal(message, l.convert(ctx, fields)...)
}

func (l *zapLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.baseFields)+len(fields))
	merged = append(merged, l.baseFields...)
	merged = append(merged, fields...)
	return &zapLogger{zl: l.zl, component: l.component, baseFields: merged}
}

func (l *zapLogger) WithComponent(component string) Logger {
	return &zapLogger{zl: l.zl, component: component, baseFields: l.baseFields}
}

// convert flattens base fields, call fields, and context values into zap fields.
func (l *zapLogger) convert(ctx context.Context, fields []Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(l.baseFields)+len(fields)+4)

	if l.component != "" {
		zapFields = append(zapFields, zap.String("component", l.component))
	}

	if ctx != nil {
		span := trace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			zapFields = append(zapFields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}
		if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && requestID != "" {
			zapFields = append(zapFields, zap.String("request_id", requestID))
		}
	}

	for _, f := range l.baseFields {
		zapFields = append(zapFields, zap.Any(f.Key, sanitizeValue(f.Key, f.Value)))
	}
	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, sanitizeValue(f.Key, f.Value)))
	}

	return zapFields
}

// ================================================================================
// Sensitive Value Masking
// ================================================================================

var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"authorization",
	"auth_token",
}

// sanitizeValue masks values for keys that look sensitive.
func sanitizeValue(key string, value interface{}) interface{} {
	keyLower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(keyLower, sensitive) {
			if str, ok := value.(string); ok && len(str) > 0 {
				return maskString(str)
			}
			return "***REDACTED***"
		}
	}
	return value
}

// maskString partially masks a string value.
func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}
