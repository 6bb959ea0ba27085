// Package activity contains the append-only audit log domain model.
package activity

import (
	"context"
	"time"
)

// Action tags the kind of event being recorded.
type Action string

const (
	// ActionJoin - a new member joined the main group.
	ActionJoin Action = "join"
	// ActionIntroCompleted - a member's intro passed validation.
	ActionIntroCompleted Action = "intro_completed"
	// ActionMessageDeleted - enforcement removed a message.
	ActionMessageDeleted Action = "message_deleted"
	// ActionAdminApprove - an admin manually approved a member.
	ActionAdminApprove Action = "admin_approve"
	// ActionAdminReset - an admin reset a member's intro status.
	ActionAdminReset Action = "admin_reset"
)

// Record is a single audit entry. Write-only from the bot's perspective;
// the dashboard reads them.
type Record struct {
	ID         string
	Action     Action
	TelegramID int64
	Details    map[string]any
	CreatedAt  time.Time
}

// Recorder persists audit records.
//
// Recording is strictly best-effort: implementations log failures and never
// return them to callers, so a broken audit trail cannot block the primary
// action that produced it.
type Recorder interface {
	Record(ctx context.Context, action Action, telegramID int64, details map[string]any)
}
