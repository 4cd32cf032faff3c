package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type ctxKey struct{}

// ContextWithLogger returns a context carrying l. Handlers further down
// the pipeline pick it up via FromContext.
func ContextWithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger carried by ctx, or the process logger
// when none was attached.
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return L()
}

// WithOperation attaches a logger tagged with the operation name and a
// short random id, so log lines from one apply run can be grepped apart
// from another.
func WithOperation(ctx context.Context, operation string) context.Context {
	l := FromContext(ctx).With(
		"operation", operation,
		"op_id", shortID(),
	)
	return ContextWithLogger(ctx, l)
}

func shortID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
