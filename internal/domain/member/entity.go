// Package member contains the domain model for tracked group participants.
// This is the core of the onboarding state machine - no external dependencies.
package member

import (
	"time"

	"github.com/superteam-my/onboarding-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// TelegramID is the unique identifier of a Telegram user.
type TelegramID int64

// IsValid checks that the TelegramID is positive.
func (t TelegramID) IsValid() bool {
	return t > 0
}

// IntroStatus is the onboarding state of a member.
//
// The only legal progression is pending → completed → approved. A status never
// regresses on its own; only an explicit admin reset moves a member back to
// pending.
type IntroStatus string

const (
	// StatusPending - the member joined but has not posted a qualifying intro.
	StatusPending IntroStatus = "pending"
	// StatusCompleted - the member posted an intro that passed validation.
	StatusCompleted IntroStatus = "completed"
	// StatusApproved - an admin manually cleared the member.
	StatusApproved IntroStatus = "approved"
)

// IsValid checks that the status is one of the known values.
func (s IntroStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusApproved:
		return true
	default:
		return false
	}
}

// IsCleared returns true if the member may post in the main group.
func (s IntroStatus) IsCleared() bool {
	return s == StatusCompleted || s == StatusApproved
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
// Reset to pending is always allowed (it models the admin override).
func (s IntroStatus) CanTransitionTo(next IntroStatus) bool {
	if next == StatusPending {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusApproved
	case StatusCompleted:
		return next == StatusApproved
	case StatusApproved:
		return false
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: MEMBER
// ══════════════════════════════════════════════════════════════════════════════

// Member is a tracked participant of the main group.
type Member struct {
	// TelegramID is the unique key of the member.
	TelegramID TelegramID

	// Username is the Telegram handle (may be empty).
	Username string

	// FirstName is the display name.
	FirstName string

	// IntroStatus is the current onboarding state.
	IntroStatus IntroStatus

	// IntroMessageID references the qualifying intro message, if any.
	IntroMessageID *int64

	// JoinedAt is when the member was first registered.
	JoinedAt time.Time

	// IntroCompletedAt is when the intro was accepted or approved, if ever.
	IntroCompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMember creates a pending member.
func NewMember(telegramID TelegramID, username, firstName string) (*Member, error) {
	if !telegramID.IsValid() {
		return nil, shared.ErrInvalidTelegramID
	}

	now := time.Now().UTC()
	return &Member{
		TelegramID:  telegramID,
		Username:    username,
		FirstName:   firstName,
		IntroStatus: StatusPending,
		JoinedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsCleared returns true if the member may post in the main group.
func (m *Member) IsCleared() bool {
	return m.IntroStatus.IsCleared()
}

// CompleteIntro transitions the member to completed, recording the qualifying
// message. Returns ErrInvalidStatus if the member is already cleared.
func (m *Member) CompleteIntro(messageID int64, at time.Time) error {
	if !m.IntroStatus.CanTransitionTo(StatusCompleted) {
		return shared.ErrInvalidStatus
	}

	m.IntroStatus = StatusCompleted
	m.IntroMessageID = &messageID
	m.IntroCompletedAt = &at
	m.UpdatedAt = at
	return nil
}

// Approve transitions the member to approved (admin override).
func (m *Member) Approve(at time.Time) error {
	if !m.IntroStatus.CanTransitionTo(StatusApproved) {
		return shared.ErrInvalidStatus
	}

	m.IntroStatus = StatusApproved
	m.IntroCompletedAt = &at
	m.UpdatedAt = at
	return nil
}

// Reset moves the member back to pending, clearing the completion record.
func (m *Member) Reset(at time.Time) {
	m.IntroStatus = StatusPending
	m.IntroMessageID = nil
	m.IntroCompletedAt = nil
	m.UpdatedAt = at
}

// DisplayName returns the best human-readable name for the member.
func (m *Member) DisplayName() string {
	if m.FirstName != "" {
		return m.FirstName
	}
	if m.Username != "" {
		return "@" + m.Username
	}
	return "New member"
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS
// ══════════════════════════════════════════════════════════════════════════════

// Stats holds aggregate counts per onboarding state.
type Stats struct {
	Total     int
	Pending   int
	Completed int
	Approved  int
}
