package telegram

import (
	"context"
	"fmt"

	"github.com/superteam-my/onboarding-bot/internal/domain/moderation"
	"github.com/superteam-my/onboarding-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODERATION GATEWAY
// ══════════════════════════════════════════════════════════════════════════════

// restrictedPermissions is the permission set applied to members who have not
// yet introduced themselves: everything off.
var restrictedPermissions = ChatPermissions{}

// clearedPermissions is the permission set applied once a member clears
// onboarding. Pinning and chat-info changes stay admin-only.
var clearedPermissions = ChatPermissions{
	CanSendMessages:       true,
	CanSendMediaMessages:  true,
	CanSendPolls:          true,
	CanSendOtherMessages:  true,
	CanAddWebPagePreviews: true,
	CanInviteUsers:        true,
}

// Gateway adapts the raw API client to the moderation ports. All permission
// operations target the configured main group.
type Gateway struct {
	client      *Client
	mainGroupID int64
}

// NewGateway creates a Gateway bound to the main group.
func NewGateway(client *Client, mainGroupID int64) *Gateway {
	return &Gateway{
		client:      client,
		mainGroupID: mainGroupID,
	}
}

// Restrict applies the restricted permission set to a user in the main group.
func (g *Gateway) Restrict(ctx context.Context, userID int64) error {
	if err := g.client.RestrictChatMember(ctx, g.mainGroupID, userID, restrictedPermissions); err != nil {
		return shared.WrapError("telegram", "Restrict", shared.ErrExternalService,
			fmt.Sprintf("failed to restrict user %d", userID), err)
	}
	return nil
}

// Unrestrict applies the cleared permission set to a user in the main group.
func (g *Gateway) Unrestrict(ctx context.Context, userID int64) error {
	if err := g.client.RestrictChatMember(ctx, g.mainGroupID, userID, clearedPermissions); err != nil {
		return shared.WrapError("telegram", "Unrestrict", shared.ErrExternalService,
			fmt.Sprintf("failed to unrestrict user %d", userID), err)
	}
	return nil
}

// GetRole resolves the user's role in the main group.
func (g *Gateway) GetRole(ctx context.Context, userID int64) (moderation.Role, error) {
	chatMember, err := g.client.GetChatMember(ctx, g.mainGroupID, userID)
	if err != nil {
		return "", shared.WrapError("telegram", "GetRole", shared.ErrExternalService,
			fmt.Sprintf("failed to resolve role of user %d", userID), err)
	}

	switch chatMember.Status {
	case MemberStatusCreator:
		return moderation.RoleCreator, nil
	case MemberStatusAdministrator:
		return moderation.RoleAdministrator, nil
	case MemberStatusRestricted:
		return moderation.RoleRestricted, nil
	default:
		return moderation.RoleMember, nil
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSENGER
// ══════════════════════════════════════════════════════════════════════════════

// Messenger adapts the raw API client to the moderation.Messenger port.
type Messenger struct {
	client *Client
}

// NewMessenger creates a Messenger.
func NewMessenger(client *Client) *Messenger {
	return &Messenger{client: client}
}

// Send posts an HTML message to a chat and returns the new message ID.
func (m *Messenger) Send(ctx context.Context, chatID int64, text string) (int64, error) {
	msg, err := m.client.SendHTML(ctx, chatID, text)
	if err != nil {
		return 0, shared.WrapError("telegram", "Send", shared.ErrExternalService,
			"failed to send message", err)
	}
	return msg.MessageID, nil
}

// Reply posts a reply-linked plain-text message and returns its ID.
func (m *Messenger) Reply(ctx context.Context, chatID, replyToMessageID int64, text string) (int64, error) {
	msg, err := m.client.SendReply(ctx, chatID, replyToMessageID, text)
	if err != nil {
		return 0, shared.WrapError("telegram", "Reply", shared.ErrExternalService,
			"failed to send reply", err)
	}
	return msg.MessageID, nil
}

// SendDirect delivers an HTML message to a user's private chat. Returns an
// error wrapping the 403 the API produces when the user never started a
// conversation with the bot.
func (m *Messenger) SendDirect(ctx context.Context, userID int64, text string) error {
	if _, err := m.client.SendHTML(ctx, userID, text); err != nil {
		return shared.WrapError("telegram", "SendDirect", shared.ErrExternalService,
			fmt.Sprintf("failed to message user %d directly", userID), err)
	}
	return nil
}

// Delete removes a message from a chat.
func (m *Messenger) Delete(ctx context.Context, chatID, messageID int64) error {
	if err := m.client.DeleteMessage(ctx, chatID, messageID); err != nil {
		return shared.WrapError("telegram", "Delete", shared.ErrExternalService,
			"failed to delete message", err)
	}
	return nil
}
