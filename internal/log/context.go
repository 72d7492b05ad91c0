// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	epochKey
)

// ContextWithRequestID stores the request correlation id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithEpoch records the configuration epoch work is done for, so log
// lines of apply hooks can be tied to the snapshot that triggered them.
func ContextWithEpoch(ctx context.Context, epoch uint64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, epochKey, epoch)
}

// EpochFromContext returns the epoch stored by ContextWithEpoch.
func EpochFromContext(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	epoch, ok := ctx.Value(epochKey).(uint64)
	return epoch, ok
}

// WithContext adds the correlation fields found in ctx to logger.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	rid := RequestIDFromContext(ctx)
	epoch, hasEpoch := EpochFromContext(ctx)
	if rid == "" && !hasEpoch {
		return logger
	}

	lc := logger.With()
	if rid != "" {
		lc = lc.Str(FieldRequestID, rid)
	}
	if hasEpoch {
		lc = lc.Uint64(FieldEpoch, epoch)
	}
	return lc.Logger()
}

// WithComponentFromContext is WithComponent plus the correlation fields of ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}
