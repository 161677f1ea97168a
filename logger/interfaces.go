// Package logger wraps zap behind the small structured surface the
// container logs through. Callers that already run zap hand their logger
// to New; everything else picks one of the preset constructors.
package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field is one structured log attribute.
type Field struct {
	zap zap.Field
}

// String builds a string field.
func String(key, value string) Field {
	return Field{zap: zap.String(key, value)}
}

// Int builds an integer field.
func Int(key string, value int) Field {
	return Field{zap: zap.Int(key, value)}
}

// Bool builds a boolean field.
func Bool(key string, value bool) Field {
	return Field{zap: zap.Bool(key, value)}
}

// Duration builds a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{zap: zap.Duration(key, value)}
}

// Any builds a field from an arbitrary value.
func Any(key string, value any) Field {
	return Field{zap: zap.Any(key, value)}
}

// Error builds the conventional "error" field.
func Error(err error) Field {
	return Field{zap: zap.Error(err)}
}

// Logger is the logging surface the container depends on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger whose entries all carry the given fields.
	With(fields ...Field) Logger

	// Named appends a segment to the logger's name.
	Named(name string) Logger

	// Sync flushes buffered entries.
	Sync() error
}
