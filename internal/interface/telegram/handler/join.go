package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/superteam-my/onboarding-bot/internal/domain/activity"
	"github.com/superteam-my/onboarding-bot/internal/domain/member"
	"github.com/superteam-my/onboarding-bot/internal/domain/moderation"
	"github.com/superteam-my/onboarding-bot/internal/domain/setting"
	"github.com/superteam-my/onboarding-bot/internal/infrastructure/external/telegram"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOIN HANDLER
// Registers new main-group members as pending, restricts them, and delivers
// onboarding instructions. A failure for one joiner never blocks the rest of
// the batch.
// ══════════════════════════════════════════════════════════════════════════════

// JoinHandler processes new_chat_members updates from the main group.
type JoinHandler struct {
	members        member.Repository
	gateway        moderation.PermissionGateway
	messenger      moderation.Messenger
	cleaner        moderation.Cleaner
	settings       setting.Store
	recorder       activity.Recorder
	introChannelID int64
	logger         *slog.Logger
}

// NewJoinHandler creates a JoinHandler.
func NewJoinHandler(
	members member.Repository,
	gateway moderation.PermissionGateway,
	messenger moderation.Messenger,
	cleaner moderation.Cleaner,
	settings setting.Store,
	recorder activity.Recorder,
	introChannelID int64,
	logger *slog.Logger,
) *JoinHandler {
	return &JoinHandler{
		members:        members,
		gateway:        gateway,
		messenger:      messenger,
		cleaner:        cleaner,
		settings:       settings,
		recorder:       recorder,
		introChannelID: introChannelID,
		logger:         logger.With("handler", "join"),
	}
}

// Handle processes one new_chat_members message.
func (h *JoinHandler) Handle(ctx context.Context, msg *telegram.Message) {
	for _, user := range msg.NewChatMembers {
		if user.IsBot {
			continue
		}

		if err := h.handleJoiner(ctx, msg.Chat.ID, &user); err != nil {
			h.logger.Error("failed to handle new member",
				"telegram_id", user.ID,
				"username", user.Username,
				"error", err)
		}
	}
}

// handleJoiner runs the onboarding sequence for a single joiner.
func (h *JoinHandler) handleJoiner(ctx context.Context, chatID int64, user *telegram.User) error {
	telegramID := member.TelegramID(user.ID)

	// Returning members who already cleared onboarding keep their access and
	// get no welcome.
	existing, err := h.members.GetByTelegramID(ctx, telegramID)
	if err == nil && existing.IsCleared() {
		h.logger.Info("returning member already introduced",
			"telegram_id", user.ID,
			"username", user.Username)
		return nil
	}

	if _, err := h.members.Upsert(ctx, telegramID, user.Username, user.FirstName); err != nil {
		return fmt.Errorf("failed to register joiner: %w", err)
	}

	// State is committed; a failed restriction is logged and left for an
	// admin to correct.
	if err := h.gateway.Restrict(ctx, user.ID); err != nil {
		h.logger.Error("failed to restrict new member",
			"telegram_id", user.ID,
			"error", err)
	}

	h.deliverWelcome(ctx, chatID, user)

	h.recorder.Record(ctx, activity.ActionJoin, user.ID, map[string]any{
		"username":   user.Username,
		"first_name": user.FirstName,
	})

	h.logger.Info("new member joined",
		"telegram_id", user.ID,
		"username", user.Username)
	return nil
}

// deliverWelcome DMs the onboarding instructions, falling back to a transient
// in-group mention when the user never opened a private chat with the bot.
func (h *JoinHandler) deliverWelcome(ctx context.Context, chatID int64, user *telegram.User) {
	welcome := WelcomeMessage(ctx, h.settings, h.introChannelID)

	if err := h.messenger.SendDirect(ctx, user.ID, welcome); err == nil {
		return
	}

	h.logger.Info("cannot DM user, posting in-group welcome", "telegram_id", user.ID)

	name := user.FirstName
	if name == "" {
		name = "New member"
	}
	fallback := fmt.Sprintf("👋 <a href=\"tg://user?id=%d\">%s</a>, welcome!\n\n%s",
		user.ID, name, welcome)

	messageID, err := h.messenger.Send(ctx, chatID, fallback)
	if err != nil {
		h.logger.Error("failed to post in-group welcome",
			"telegram_id", user.ID,
			"error", err)
		return
	}

	h.cleaner.ScheduleDelete(chatID, messageID, WelcomeFallbackTTL)
}
