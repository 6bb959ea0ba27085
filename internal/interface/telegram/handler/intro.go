package handler

import (
	"context"
	"log/slog"

	"github.com/superteam-my/onboarding-bot/internal/domain/activity"
	"github.com/superteam-my/onboarding-bot/internal/domain/intro"
	"github.com/superteam-my/onboarding-bot/internal/domain/member"
	"github.com/superteam-my/onboarding-bot/internal/domain/moderation"
	"github.com/superteam-my/onboarding-bot/internal/infrastructure/external/telegram"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTRO HANDLER
// Validates messages posted in the intro channel. An accepted intro commits
// the member to completed and lifts the main-group restriction; a rejected
// one gets transient coaching feedback and changes nothing.
// ══════════════════════════════════════════════════════════════════════════════

// IntroHandler processes messages from the intro channel.
type IntroHandler struct {
	members   member.Repository
	gateway   moderation.PermissionGateway
	messenger moderation.Messenger
	cleaner   moderation.Cleaner
	recorder  activity.Recorder
	logger    *slog.Logger
}

// NewIntroHandler creates an IntroHandler.
func NewIntroHandler(
	members member.Repository,
	gateway moderation.PermissionGateway,
	messenger moderation.Messenger,
	cleaner moderation.Cleaner,
	recorder activity.Recorder,
	logger *slog.Logger,
) *IntroHandler {
	return &IntroHandler{
		members:   members,
		gateway:   gateway,
		messenger: messenger,
		cleaner:   cleaner,
		recorder:  recorder,
		logger:    logger.With("handler", "intro"),
	}
}

// Handle processes one intro channel message.
func (h *IntroHandler) Handle(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	telegramID := member.TelegramID(msg.From.ID)

	// Members who already cleared onboarding may post freely; re-validating
	// would make accepted intros non-final.
	existing, err := h.members.GetByTelegramID(ctx, telegramID)
	if err == nil && existing.IsCleared() {
		return
	}

	result := intro.Validate(msg.Content())
	if !result.Accepted {
		h.sendFeedback(ctx, msg)
		return
	}

	messageID := msg.MessageID
	if _, err := h.members.UpdateIntroStatus(ctx, telegramID, member.StatusCompleted, &messageID); err != nil {
		h.logger.Error("failed to commit completed intro",
			"telegram_id", msg.From.ID,
			"error", err)
		return
	}

	// The store is authoritative from here on; a failed unrestriction is
	// logged and left for an admin to correct.
	if err := h.gateway.Unrestrict(ctx, msg.From.ID); err != nil {
		h.logger.Error("failed to unrestrict member after intro",
			"telegram_id", msg.From.ID,
			"error", err)
	}

	firstName := msg.From.FirstName
	if firstName == "" {
		firstName = "friend"
	}
	if _, err := h.messenger.Reply(ctx, msg.Chat.ID, msg.MessageID, CongratsMessage(firstName)); err != nil {
		h.logger.Error("failed to send congrats reply",
			"telegram_id", msg.From.ID,
			"error", err)
	}

	h.recorder.Record(ctx, activity.ActionIntroCompleted, msg.From.ID, map[string]any{
		"username":   msg.From.Username,
		"message_id": msg.MessageID,
	})

	h.logger.Info("intro completed",
		"telegram_id", msg.From.ID,
		"username", msg.From.Username)
}

// sendFeedback posts transient coaching feedback under a rejected intro.
func (h *IntroHandler) sendFeedback(ctx context.Context, msg *telegram.Message) {
	feedbackID, err := h.messenger.Reply(ctx, msg.Chat.ID, msg.MessageID, IntroFeedbackMessage())
	if err != nil {
		h.logger.Error("failed to send intro feedback",
			"telegram_id", msg.From.ID,
			"error", err)
		return
	}

	h.cleaner.ScheduleDelete(msg.Chat.ID, feedbackID, FeedbackTTL)
}
