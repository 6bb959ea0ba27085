package postgres

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/superteam-my/onboarding-bot/internal/domain/activity"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY RECORDER IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRecorder implements activity.Recorder for PostgreSQL. Inserts are
// best-effort: a failed insert is logged and dropped so the audit trail can
// never block the action that produced it.
type ActivityRecorder struct {
	conn   *Connection
	logger *slog.Logger
}

// NewActivityRecorder creates a new ActivityRecorder.
func NewActivityRecorder(conn *Connection, logger *slog.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		conn:   conn,
		logger: logger.With("component", "activity_recorder"),
	}
}

// Record appends an audit entry.
func (r *ActivityRecorder) Record(ctx context.Context, action activity.Action, telegramID int64, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}

	payload, err := json.Marshal(details)
	if err != nil {
		r.logger.Warn("failed to encode activity details",
			"action", string(action),
			"telegram_id", telegramID,
			"error", err)
		payload = []byte("{}")
	}

	query := `
		INSERT INTO activity_log (id, action, telegram_id, details)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.conn.Exec(ctx, query, uuid.New(), string(action), telegramID, payload); err != nil {
		r.logger.Warn("failed to record activity",
			"action", string(action),
			"telegram_id", telegramID,
			"error", err)
	}
}
