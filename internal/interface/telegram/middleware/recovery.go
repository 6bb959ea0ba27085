package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in update handlers so one bad update can never take down the
// polling loop.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateFunc processes one routed update.
type UpdateFunc func(ctx context.Context)

// Recovery wraps handler invocations with panic recovery.
type Recovery struct {
	logger *slog.Logger
}

// NewRecovery creates the recovery middleware.
func NewRecovery(logger *slog.Logger) *Recovery {
	return &Recovery{logger: logger.With("middleware", "recovery")}
}

// Wrap runs fn, converting a panic into a log entry.
func (r *Recovery) Wrap(ctx context.Context, updateID int64, fn UpdateFunc) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic while handling update",
				"update_id", updateID,
				"panic", fmt.Sprintf("%v", p),
				"stack", string(debug.Stack()))
		}
	}()

	fn(ctx)
}
