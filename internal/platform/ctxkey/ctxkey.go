// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey holds the typed keys for per-request context values.
package ctxkey

// key keeps these values apart from string keys set by other packages.
type key string

const (
	// KeyRequestID carries the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyOperator carries the verified [sec.AuthClaims] of the calling operator.
	KeyOperator key = "operator"

	// KeyLogger carries the request-scoped [*log/slog.Logger].
	KeyLogger key = "logger"
)
