// Package moderation defines the ports the onboarding core uses to act on the
// chat platform: permission changes, outbound messages, and transient message
// cleanup. Implementations live in infrastructure.
package moderation

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLES
// ══════════════════════════════════════════════════════════════════════════════

// Role is a user's role in the main group as reported by the platform.
type Role string

const (
	// RoleCreator - the group owner.
	RoleCreator Role = "creator"
	// RoleAdministrator - a group administrator.
	RoleAdministrator Role = "administrator"
	// RoleMember - a regular group member.
	RoleMember Role = "member"
	// RoleRestricted - a member under restrictions.
	RoleRestricted Role = "restricted"
)

// IsAdmin returns true for group owners and administrators. Admins are exempt
// from enforcement and may run admin commands.
func (r Role) IsAdmin() bool {
	return r == RoleCreator || r == RoleAdministrator
}

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// PermissionGateway applies and lifts send-restrictions on users in the main
// group. Failures are non-fatal to callers: the member store remains the
// source of truth and an admin can correct a missed permission change.
type PermissionGateway interface {
	// Restrict applies the restricted permission set (no messages, media,
	// polls, other content, previews, invites, pins, or info changes).
	Restrict(ctx context.Context, userID int64) error

	// Unrestrict applies the cleared permission set (messages, media, polls,
	// other content, previews, and invites allowed).
	Unrestrict(ctx context.Context, userID int64) error

	// GetRole resolves the user's role in the main group.
	GetRole(ctx context.Context, userID int64) (Role, error)
}

// Messenger sends and deletes messages. Each operation is independently
// fallible.
type Messenger interface {
	// Send posts an HTML message to a chat and returns the new message ID.
	Send(ctx context.Context, chatID int64, text string) (int64, error)

	// Reply posts a reply-linked plain-text message and returns its ID.
	Reply(ctx context.Context, chatID, replyToMessageID int64, text string) (int64, error)

	// SendDirect delivers an HTML message to a user's private chat. Fails if
	// the user never started a conversation with the bot.
	SendDirect(ctx context.Context, userID int64, text string) error

	// Delete removes a message from a chat.
	Delete(ctx context.Context, chatID, messageID int64) error
}

// Cleaner schedules the removal of transient messages. Scheduling is
// fire-and-forget: a cleanup that never fires leaves cosmetic clutter, never
// a correctness problem.
type Cleaner interface {
	ScheduleDelete(chatID, messageID int64, after time.Duration)
}
