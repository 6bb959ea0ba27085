package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/superteam-my/onboarding-bot/internal/domain/activity"
	"github.com/superteam-my/onboarding-bot/internal/domain/member"
	"github.com/superteam-my/onboarding-bot/internal/domain/moderation"
	"github.com/superteam-my/onboarding-bot/internal/domain/setting"
	"github.com/superteam-my/onboarding-bot/internal/domain/shared"
	"github.com/superteam-my/onboarding-bot/internal/infrastructure/external/telegram"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLER
// Manual override surface: approve, reset, status, and enforcement mode.
// Every command is gated on the caller's live role in the main group.
// ══════════════════════════════════════════════════════════════════════════════

// Admin reply texts.
const (
	adminOnlyReply    = "❌ This command is only available to admins."
	genericErrorReply = "❌ An error occurred."
	userNotFoundReply = "❌ User not found in the database."
)

// AdminHandler processes admin commands.
type AdminHandler struct {
	members   member.Repository
	gateway   moderation.PermissionGateway
	messenger moderation.Messenger
	settings  setting.Store
	recorder  activity.Recorder
	logger    *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	members member.Repository,
	gateway moderation.PermissionGateway,
	messenger moderation.Messenger,
	settings setting.Store,
	recorder activity.Recorder,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		members:   members,
		gateway:   gateway,
		messenger: messenger,
		settings:  settings,
		recorder:  recorder,
		logger:    logger.With("handler", "admin"),
	}
}

// Handle dispatches a command message to the matching admin operation.
// Unknown commands are ignored.
func (h *AdminHandler) Handle(ctx context.Context, msg *telegram.Message) {
	command := telegram.ExtractCommand(msg)

	switch command {
	case "approve_user":
		h.handleApprove(ctx, msg)
	case "reset_intro":
		h.handleReset(ctx, msg)
	case "bot_status":
		h.handleStatus(ctx, msg)
	case "set_enforcement":
		h.handleSetEnforcement(ctx, msg)
	}
}

// requireAdmin checks the caller's live role. Role lookup failures deny.
func (h *AdminHandler) requireAdmin(ctx context.Context, msg *telegram.Message) bool {
	if msg.From == nil {
		return false
	}

	role, err := h.gateway.GetRole(ctx, msg.From.ID)
	if err != nil || !role.IsAdmin() {
		h.reply(ctx, msg, adminOnlyReply)
		return false
	}
	return true
}

// targetUserID resolves the command target: the replied-to message's author,
// or a numeric argument (leading @ stripped). Returns 0 when no target can
// be resolved.
func targetUserID(msg *telegram.Message) int64 {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		return msg.ReplyToMessage.From.ID
	}

	args := telegram.ExtractCommandArgs(msg)
	if args == "" {
		return 0
	}

	arg := strings.TrimPrefix(strings.Fields(args)[0], "@")
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// handleApprove manually clears a known member.
func (h *AdminHandler) handleApprove(ctx context.Context, msg *telegram.Message) {
	if !h.requireAdmin(ctx, msg) {
		return
	}

	targetID := targetUserID(msg)
	if targetID == 0 {
		h.reply(ctx, msg, "Usage: /approve_user <user_id> or reply to a user's message")
		return
	}

	if _, err := h.members.GetByTelegramID(ctx, member.TelegramID(targetID)); err != nil {
		if shared.IsNotFound(err) {
			h.reply(ctx, msg, userNotFoundReply)
		} else {
			h.logger.Error("approve_user lookup failed", "target_id", targetID, "error", err)
			h.reply(ctx, msg, genericErrorReply)
		}
		return
	}

	if _, err := h.members.UpdateIntroStatus(ctx, member.TelegramID(targetID), member.StatusApproved, nil); err != nil {
		h.logger.Error("approve_user update failed", "target_id", targetID, "error", err)
		h.reply(ctx, msg, genericErrorReply)
		return
	}

	if err := h.gateway.Unrestrict(ctx, targetID); err != nil {
		h.logger.Error("failed to unrestrict approved user", "target_id", targetID, "error", err)
	}

	h.recorder.Record(ctx, activity.ActionAdminApprove, targetID, map[string]any{
		"approved_by": msg.From.ID,
	})

	h.reply(ctx, msg, fmt.Sprintf("✅ User %d has been approved.", targetID))
}

// handleReset moves a member back to pending and re-restricts them.
func (h *AdminHandler) handleReset(ctx context.Context, msg *telegram.Message) {
	if !h.requireAdmin(ctx, msg) {
		return
	}

	targetID := targetUserID(msg)
	if targetID == 0 {
		h.reply(ctx, msg, "Usage: /reset_intro <user_id> or reply to a user's message")
		return
	}

	if _, err := h.members.ResetIntroStatus(ctx, member.TelegramID(targetID)); err != nil {
		if shared.IsNotFound(err) {
			h.reply(ctx, msg, userNotFoundReply)
		} else {
			h.logger.Error("reset_intro failed", "target_id", targetID, "error", err)
			h.reply(ctx, msg, genericErrorReply)
		}
		return
	}

	if err := h.gateway.Restrict(ctx, targetID); err != nil {
		h.logger.Error("failed to re-restrict reset user", "target_id", targetID, "error", err)
	}

	h.recorder.Record(ctx, activity.ActionAdminReset, targetID, map[string]any{
		"reset_by": msg.From.ID,
	})

	h.reply(ctx, msg, fmt.Sprintf("✅ Intro status for user %d has been reset.", targetID))
}

// handleStatus reports aggregate onboarding counts.
func (h *AdminHandler) handleStatus(ctx context.Context, msg *telegram.Message) {
	if !h.requireAdmin(ctx, msg) {
		return
	}

	stats, err := h.members.GetStats(ctx)
	if err != nil {
		h.logger.Error("bot_status failed", "error", err)
		h.reply(ctx, msg, genericErrorReply)
		return
	}

	h.reply(ctx, msg, fmt.Sprintf(
		"📊 Bot Status\n\n👥 Total members: %d\n⏳ Pending intro: %d\n✅ Completed: %d\n🔑 Admin approved: %d",
		stats.Total, stats.Pending, stats.Completed, stats.Approved))
}

// handleSetEnforcement switches the enforcement mode at runtime.
func (h *AdminHandler) handleSetEnforcement(ctx context.Context, msg *telegram.Message) {
	if !h.requireAdmin(ctx, msg) {
		return
	}

	args := telegram.ExtractCommandArgs(msg)
	mode := setting.EnforcementMode("")
	if args != "" {
		mode = setting.EnforcementMode(strings.Fields(args)[0])
	}

	if !mode.IsValid() {
		h.reply(ctx, msg, "Usage: /set_enforcement <mute|auto_delete>")
		return
	}

	if err := h.settings.Set(ctx, setting.KeyEnforcementMode, string(mode)); err != nil {
		h.logger.Error("set_enforcement failed", "mode", string(mode), "error", err)
		h.reply(ctx, msg, genericErrorReply)
		return
	}

	h.reply(ctx, msg, fmt.Sprintf("✅ Enforcement mode set to: %s", mode))
}

// reply posts a plain reply to the command message; failures only get logged.
func (h *AdminHandler) reply(ctx context.Context, msg *telegram.Message, text string) {
	if _, err := h.messenger.Reply(ctx, msg.Chat.ID, msg.MessageID, text); err != nil {
		h.logger.Error("failed to send admin reply", "error", err)
	}
}
