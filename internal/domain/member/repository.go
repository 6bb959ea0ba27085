package member

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// The contract for the member store. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines persistence operations for members.
//
// All mutations of a member's status go through the store so that the
// read-modify-write on a given user's record is atomic at the store level
// (conditional update keyed by Telegram ID). Callers never do a separate
// read-then-write for status changes.
type Repository interface {
	// GetByTelegramID returns a member by Telegram ID.
	// Returns shared.ErrMemberNotFound if the member does not exist.
	GetByTelegramID(ctx context.Context, telegramID TelegramID) (*Member, error)

	// Upsert creates the member if absent (status pending) or refreshes the
	// username/first name of an existing record without touching its status.
	// Returns the stored member.
	Upsert(ctx context.Context, telegramID TelegramID, username, firstName string) (*Member, error)

	// UpdateIntroStatus advances a member to completed or approved in a single
	// conditional update. For StatusCompleted the update only fires while the
	// member is still pending, which makes intro handling idempotent under
	// concurrent submissions. An optional intro message reference is recorded.
	// Returns the updated member, or shared.ErrMemberNotFound if the member
	// does not exist, or shared.ErrInvalidStatus if the transition did not
	// apply.
	UpdateIntroStatus(ctx context.Context, telegramID TelegramID, status IntroStatus, introMessageID *int64) (*Member, error)

	// ResetIntroStatus moves a member back to pending, clearing the completion
	// timestamp and intro message reference.
	// Returns shared.ErrMemberNotFound if the member does not exist.
	ResetIntroStatus(ctx context.Context, telegramID TelegramID) (*Member, error)

	// GetStats returns aggregate counts per onboarding state.
	GetStats(ctx context.Context) (Stats, error)
}
