// Package ctxutil reads and writes the per-request values that middleware
// attaches to a [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/atelier/internal/platform/ctxkey"
	"github.com/taibuivan/atelier/internal/platform/sec"
)

// # Correlation

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// RequestID is empty outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Logging

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// Logger returns the request logger, or [slog.Default] when none is attached.
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// # Operator

// WithOperator attaches the claims of a verified bearer token.
func WithOperator(ctx context.Context, claims *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyOperator, claims)
}

// Operator is nil when the request carried no verified token.
func Operator(ctx context.Context) *sec.AuthClaims {
	claims, _ := ctx.Value(ctxkey.KeyOperator).(*sec.AuthClaims)
	return claims
}
