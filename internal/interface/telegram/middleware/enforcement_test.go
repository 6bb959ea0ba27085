package middleware

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/superteam-my/onboarding-bot/internal/domain/activity"
	"github.com/superteam-my/onboarding-bot/internal/domain/member"
	"github.com/superteam-my/onboarding-bot/internal/domain/moderation"
	"github.com/superteam-my/onboarding-bot/internal/domain/setting"
	"github.com/superteam-my/onboarding-bot/internal/domain/shared"
	"github.com/superteam-my/onboarding-bot/internal/infrastructure/external/telegram"
	"github.com/superteam-my/onboarding-bot/internal/interface/telegram/handler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mainGroupID    = int64(-1001000000001)
	introChannelID = int64(-1002000000002)
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type stubMembers struct {
	members map[member.TelegramID]*member.Member
	err     error
}

func (s *stubMembers) GetByTelegramID(_ context.Context, id member.TelegramID) (*member.Member, error) {
	if s.err != nil {
		return nil, s.err
	}
	if m, ok := s.members[id]; ok {
		return m, nil
	}
	return nil, shared.ErrMemberNotFound
}

func (s *stubMembers) Upsert(context.Context, member.TelegramID, string, string) (*member.Member, error) {
	panic("not used")
}

func (s *stubMembers) UpdateIntroStatus(context.Context, member.TelegramID, member.IntroStatus, *int64) (*member.Member, error) {
	panic("not used")
}

func (s *stubMembers) ResetIntroStatus(context.Context, member.TelegramID) (*member.Member, error) {
	panic("not used")
}

func (s *stubMembers) GetStats(context.Context) (member.Stats, error) {
	panic("not used")
}

type stubGateway struct {
	roles   map[int64]moderation.Role
	roleErr error
}

func (g *stubGateway) Restrict(context.Context, int64) error   { return nil }
func (g *stubGateway) Unrestrict(context.Context, int64) error { return nil }

func (g *stubGateway) GetRole(_ context.Context, userID int64) (moderation.Role, error) {
	if g.roleErr != nil {
		return "", g.roleErr
	}
	if role, ok := g.roles[userID]; ok {
		return role, nil
	}
	return moderation.RoleMember, nil
}

type deletedMessage struct {
	chatID    int64
	messageID int64
}

type stubMessenger struct {
	mu        sync.Mutex
	deleted   []deletedMessage
	replies   []string
	deleteErr error
	replyErr  error

	nextID int64
}

func (m *stubMessenger) Send(context.Context, int64, string) (int64, error) {
	panic("not used")
}

func (m *stubMessenger) Reply(_ context.Context, _ int64, _ int64, text string) (int64, error) {
	if m.replyErr != nil {
		return 0, m.replyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.replies = append(m.replies, text)
	return 9000 + m.nextID, nil
}

func (m *stubMessenger) SendDirect(context.Context, int64, string) error {
	panic("not used")
}

func (m *stubMessenger) Delete(_ context.Context, chatID, messageID int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, deletedMessage{chatID: chatID, messageID: messageID})
	return nil
}

type stubCleaner struct {
	mu        sync.Mutex
	scheduled []time.Duration
}

func (c *stubCleaner) ScheduleDelete(_, _ int64, after time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduled = append(c.scheduled, after)
}

type stubSettings struct {
	values map[string]string
	err    error
}

func (s *stubSettings) Get(_ context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", shared.ErrSettingNotFound
}

func (s *stubSettings) Set(context.Context, string, string) error { return nil }

type stubRecorder struct {
	mu      sync.Mutex
	actions []activity.Action
}

func (r *stubRecorder) Record(_ context.Context, action activity.Action, _ int64, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture
// ─────────────────────────────────────────────────────────────────────────────

type fixture struct {
	members   *stubMembers
	gateway   *stubGateway
	messenger *stubMessenger
	cleaner   *stubCleaner
	settings  *stubSettings
	recorder  *stubRecorder
	mw        *Enforcement
}

func newFixture(defaultMode setting.EnforcementMode) *fixture {
	f := &fixture{
		members:   &stubMembers{members: make(map[member.TelegramID]*member.Member)},
		gateway:   &stubGateway{roles: make(map[int64]moderation.Role)},
		messenger: &stubMessenger{},
		cleaner:   &stubCleaner{},
		settings:  &stubSettings{values: make(map[string]string)},
		recorder:  &stubRecorder{},
	}
	f.mw = NewEnforcement(f.members, f.gateway, f.messenger, f.cleaner,
		f.settings, f.recorder, defaultMode, introChannelID, slog.Default())
	return f
}

func mainGroupMessage(userID, messageID int64, text string) *telegram.Message {
	return &telegram.Message{
		MessageID: messageID,
		From:      &telegram.User{ID: userID, FirstName: "Dana"},
		Chat:      &telegram.Chat{ID: mainGroupID, Type: "supergroup"},
		Text:      text,
	}
}

func (f *fixture) seedCleared(id member.TelegramID) {
	m, _ := member.NewMember(id, "dana", "Dana")
	_ = m.CompleteIntro(1001, time.Now().UTC())
	f.members.members[id] = m
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestEnforcement_AutoDeleteRemovesUngatedMessage(t *testing.T) {
	f := newFixture(setting.ModeAutoDelete)

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "hello all"))

	// Exactly one delete, one transient reminder, one audit entry.
	require.Len(t, f.messenger.deleted, 1)
	assert.Equal(t, deletedMessage{chatID: mainGroupID, messageID: 100}, f.messenger.deleted[0])

	require.Len(t, f.messenger.replies, 1)
	assert.Contains(t, f.messenger.replies[0], handler.IntroChannelLink(introChannelID))
	require.Len(t, f.cleaner.scheduled, 1)
	assert.Equal(t, handler.ReminderTTL, f.cleaner.scheduled[0])

	assert.Equal(t, []activity.Action{activity.ActionMessageDeleted}, f.recorder.actions)
}

func TestEnforcement_MuteModeTakesNoAction(t *testing.T) {
	f := newFixture(setting.ModeMute)

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "hello all"))

	assert.Empty(t, f.messenger.deleted)
	assert.Empty(t, f.messenger.replies)
	assert.Empty(t, f.recorder.actions)
}

func TestEnforcement_ClearedMemberAllowed(t *testing.T) {
	f := newFixture(setting.ModeAutoDelete)
	f.seedCleared(42)

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "hello all"))

	assert.Empty(t, f.messenger.deleted)
	assert.Empty(t, f.recorder.actions)
}

func TestEnforcement_AdminExempt(t *testing.T) {
	f := newFixture(setting.ModeAutoDelete)
	f.gateway.roles[42] = moderation.RoleAdministrator

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "admin notice"))

	assert.Empty(t, f.messenger.deleted)
}

func TestEnforcement_CommandsAndBotsSkipped(t *testing.T) {
	f := newFixture(setting.ModeAutoDelete)

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "/bot_status"))

	botMsg := mainGroupMessage(43, 101, "beep")
	botMsg.From.IsBot = true
	f.mw.Process(context.Background(), botMsg)

	assert.Empty(t, f.messenger.deleted)
}

func TestEnforcement_SettingOverridesDefaultMode(t *testing.T) {
	// Default mute, dashboard set auto_delete: the live value wins.
	f := newFixture(setting.ModeMute)
	f.settings.values[setting.KeyEnforcementMode] = "auto_delete"

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "hello all"))
	assert.Len(t, f.messenger.deleted, 1)

	// And the reverse: dashboard mute beats default auto_delete.
	f = newFixture(setting.ModeAutoDelete)
	f.settings.values[setting.KeyEnforcementMode] = "mute"

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "hello all"))
	assert.Empty(t, f.messenger.deleted)
}

func TestEnforcement_InvalidSettingFallsBackToDefault(t *testing.T) {
	f := newFixture(setting.ModeAutoDelete)
	f.settings.values[setting.KeyEnforcementMode] = "nuke"

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "hello all"))

	assert.Len(t, f.messenger.deleted, 1)
}

func TestEnforcement_FailsOpenOnRoleLookupError(t *testing.T) {
	f := newFixture(setting.ModeAutoDelete)
	f.gateway.roleErr = assert.AnError

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "hello all"))

	assert.Empty(t, f.messenger.deleted)
	assert.Empty(t, f.recorder.actions)
}

func TestEnforcement_FailsOpenOnStoreError(t *testing.T) {
	f := newFixture(setting.ModeAutoDelete)
	f.members.err = assert.AnError

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "hello all"))

	assert.Empty(t, f.messenger.deleted)
}

func TestEnforcement_DeleteFailureStillRemindsAndRecords(t *testing.T) {
	f := newFixture(setting.ModeAutoDelete)
	f.messenger.deleteErr = assert.AnError

	f.mw.Process(context.Background(), mainGroupMessage(42, 100, "hello all"))

	assert.Len(t, f.messenger.replies, 1)
	assert.Equal(t, []activity.Action{activity.ActionMessageDeleted}, f.recorder.actions)
}

func TestEnforcement_UnknownMemberEnforced(t *testing.T) {
	// A user with no member row (joined before the bot) is treated as pending.
	f := newFixture(setting.ModeAutoDelete)

	f.mw.Process(context.Background(), mainGroupMessage(77, 100, "hello all"))

	assert.Len(t, f.messenger.deleted, 1)
}
