package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type zapLogger struct {
	l *zap.Logger
}

// New wraps an existing zap logger. A nil logger yields a no-op one.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{l: l}
}

// NewNop returns a logger that drops everything.
func NewNop() Logger {
	return &zapLogger{l: zap.NewNop()}
}

// NewDevelopment returns a human-readable logger at debug level.
func NewDevelopment() (Logger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &zapLogger{l: l}, nil
}

// NewProduction returns a JSON logger at info level.
func NewProduction() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapLogger{l: l}, nil
}

// NewTest returns a logger writing through the test's log output, so
// entries show up only when the test fails or runs verbose.
func NewTest(t zaptest.TestingT) Logger {
	return &zapLogger{l: zaptest.NewLogger(t)}
}

func (z *zapLogger) Debug(msg string, fields ...Field) {
	z.l.Debug(msg, unwrap(fields)...)
}

func (z *zapLogger) Info(msg string, fields ...Field) {
	z.l.Info(msg, unwrap(fields)...)
}

func (z *zapLogger) Warn(msg string, fields ...Field) {
	z.l.Warn(msg, unwrap(fields)...)
}

func (z *zapLogger) Error(msg string, fields ...Field) {
	z.l.Error(msg, unwrap(fields)...)
}

func (z *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{l: z.l.With(unwrap(fields)...)}
}

func (z *zapLogger) Named(name string) Logger {
	return &zapLogger{l: z.l.Named(name)}
}

func (z *zapLogger) Sync() error {
	return z.l.Sync()
}

func unwrap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = f.zap
	}
	return out
}
