// Package middleware contains the update-processing layers that run before
// the handlers: enforcement of the intro gate and panic recovery.
package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/superteam-my/onboarding-bot/internal/domain/activity"
	"github.com/superteam-my/onboarding-bot/internal/domain/member"
	"github.com/superteam-my/onboarding-bot/internal/domain/moderation"
	"github.com/superteam-my/onboarding-bot/internal/domain/setting"
	"github.com/superteam-my/onboarding-bot/internal/domain/shared"
	"github.com/superteam-my/onboarding-bot/internal/infrastructure/external/telegram"
	"github.com/superteam-my/onboarding-bot/internal/interface/telegram/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENFORCEMENT MIDDLEWARE
// Applies the intro gate to every main-group message. Fails open: any error
// along the decision path lets the message through, because wrongly deleting
// a legitimate message is worse than letting one slip past the gate.
// ══════════════════════════════════════════════════════════════════════════════

// Enforcement gates main-group messages on intro completion.
type Enforcement struct {
	members        member.Repository
	gateway        moderation.PermissionGateway
	messenger      moderation.Messenger
	cleaner        moderation.Cleaner
	settings       setting.Store
	recorder       activity.Recorder
	defaultMode    setting.EnforcementMode
	introChannelID int64
	logger         *slog.Logger
}

// NewEnforcement creates the enforcement middleware.
func NewEnforcement(
	members member.Repository,
	gateway moderation.PermissionGateway,
	messenger moderation.Messenger,
	cleaner moderation.Cleaner,
	settings setting.Store,
	recorder activity.Recorder,
	defaultMode setting.EnforcementMode,
	introChannelID int64,
	logger *slog.Logger,
) *Enforcement {
	return &Enforcement{
		members:        members,
		gateway:        gateway,
		messenger:      messenger,
		cleaner:        cleaner,
		settings:       settings,
		recorder:       recorder,
		defaultMode:    defaultMode,
		introChannelID: introChannelID,
		logger:         logger.With("middleware", "enforcement"),
	}
}

// Process applies the gate to one main-group message. The caller has already
// routed: only non-command, non-bot main-group messages arrive here.
func (e *Enforcement) Process(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	telegramID := msg.From.ID

	// Admins are exempt.
	role, err := e.gateway.GetRole(ctx, telegramID)
	if err != nil {
		e.logger.Error("enforcement role lookup failed, allowing message",
			"telegram_id", telegramID,
			"error", err)
		return
	}
	if role.IsAdmin() {
		return
	}

	m, err := e.members.GetByTelegramID(ctx, member.TelegramID(telegramID))
	switch {
	case err == nil && m.IsCleared():
		return
	case err != nil && !shared.IsNotFound(err):
		// Store unavailable: fail open rather than enforce on a guess.
		e.logger.Error("enforcement member lookup failed, allowing message",
			"telegram_id", telegramID,
			"error", err)
		return
	}

	// Unknown members (joined before the bot was added) are treated as
	// pending and enforced like everyone else.

	mode := e.currentMode(ctx)
	if mode != setting.ModeAutoDelete {
		// In mute mode the join-time restriction is the only mechanism; a
		// message that slipped through stays up.
		return
	}

	if err := e.messenger.Delete(ctx, msg.Chat.ID, msg.MessageID); err != nil {
		e.logger.Error("failed to delete ungated message",
			"telegram_id", telegramID,
			"message_id", msg.MessageID,
			"error", err)
	}

	e.postReminder(ctx, msg)

	e.recorder.Record(ctx, activity.ActionMessageDeleted, telegramID, map[string]any{
		"reason": "no_intro",
	})
}

// currentMode reads the enforcement mode fresh, falling back to the startup
// default when the setting is absent or unreadable.
func (e *Enforcement) currentMode(ctx context.Context) setting.EnforcementMode {
	value, err := e.settings.Get(ctx, setting.KeyEnforcementMode)
	if err != nil {
		return e.defaultMode
	}

	mode := setting.EnforcementMode(value)
	if !mode.IsValid() {
		return e.defaultMode
	}
	return mode
}

// postReminder posts a transient pointer to the intro channel.
func (e *Enforcement) postReminder(ctx context.Context, msg *telegram.Message) {
	reminderID, err := e.messenger.Reply(ctx, msg.Chat.ID, msg.MessageID,
		handler.ReminderMessage(e.introChannelID))
	if err != nil {
		e.logger.Error("failed to post enforcement reminder",
			"telegram_id", msg.From.ID,
			"error", err)
		return
	}

	e.cleaner.ScheduleDelete(msg.Chat.ID, reminderID, handler.ReminderTTL)
}
