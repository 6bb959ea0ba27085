package handler

import (
	"context"
	"sync"
	"time"

	"github.com/superteam-my/onboarding-bot/internal/domain/activity"
	"github.com/superteam-my/onboarding-bot/internal/domain/member"
	"github.com/superteam-my/onboarding-bot/internal/domain/moderation"
	"github.com/superteam-my/onboarding-bot/internal/domain/shared"
	"github.com/superteam-my/onboarding-bot/internal/infrastructure/external/telegram"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory member repository with the store's conditional-update semantics.
// ─────────────────────────────────────────────────────────────────────────────

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[member.TelegramID]*member.Member

	getErr    error
	upsertErr error
	updateErr error
	stats     member.Stats
	statsErr  error
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[member.TelegramID]*member.Member)}
}

func (r *fakeMemberRepo) seed(m *member.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *m
	r.members[m.TelegramID] = &clone
}

func (r *fakeMemberRepo) get(id member.TelegramID) *member.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		clone := *m
		return &clone
	}
	return nil
}

func (r *fakeMemberRepo) GetByTelegramID(_ context.Context, id member.TelegramID) (*member.Member, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, shared.ErrMemberNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMemberRepo) Upsert(_ context.Context, id member.TelegramID, username, firstName string) (*member.Member, error) {
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		m.Username = username
		m.FirstName = firstName
		clone := *m
		return &clone, nil
	}

	m, err := member.NewMember(id, username, firstName)
	if err != nil {
		return nil, err
	}
	r.members[id] = m
	clone := *m
	return &clone, nil
}

func (r *fakeMemberRepo) UpdateIntroStatus(_ context.Context, id member.TelegramID, status member.IntroStatus, introMessageID *int64) (*member.Member, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, shared.ErrMemberNotFound
	}
	if !m.IntroStatus.CanTransitionTo(status) || status == member.StatusPending {
		return nil, shared.ErrInvalidStatus
	}

	now := time.Now().UTC()
	m.IntroStatus = status
	if introMessageID != nil {
		m.IntroMessageID = introMessageID
	}
	m.IntroCompletedAt = &now
	clone := *m
	return &clone, nil
}

func (r *fakeMemberRepo) ResetIntroStatus(_ context.Context, id member.TelegramID) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, shared.ErrMemberNotFound
	}
	m.Reset(time.Now().UTC())
	clone := *m
	return &clone, nil
}

func (r *fakeMemberRepo) GetStats(context.Context) (member.Stats, error) {
	if r.statsErr != nil {
		return member.Stats{}, r.statsErr
	}
	return r.stats, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Permission gateway
// ─────────────────────────────────────────────────────────────────────────────

type fakeGateway struct {
	mu           sync.Mutex
	restricted   []int64
	unrestricted []int64

	restrictErr   error
	unrestrictErr error
	roles         map[int64]moderation.Role
	roleErr       error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{roles: make(map[int64]moderation.Role)}
}

func (g *fakeGateway) Restrict(_ context.Context, userID int64) error {
	if g.restrictErr != nil {
		return g.restrictErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.restricted = append(g.restricted, userID)
	return nil
}

func (g *fakeGateway) Unrestrict(_ context.Context, userID int64) error {
	if g.unrestrictErr != nil {
		return g.unrestrictErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unrestricted = append(g.unrestricted, userID)
	return nil
}

func (g *fakeGateway) GetRole(_ context.Context, userID int64) (moderation.Role, error) {
	if g.roleErr != nil {
		return "", g.roleErr
	}
	if role, ok := g.roles[userID]; ok {
		return role, nil
	}
	return moderation.RoleMember, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Messenger
// ─────────────────────────────────────────────────────────────────────────────

type sentMessage struct {
	chatID  int64
	replyTo int64
	text    string
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	replies []sentMessage
	directs map[int64][]string
	deleted []sentMessage

	nextMessageID int64
	directErr     error
	sendErr       error
	replyErr      error
	deleteErr     error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{directs: make(map[int64][]string), nextMessageID: 5000}
}

func (m *fakeMessenger) Send(_ context.Context, chatID int64, text string) (int64, error) {
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMessageID++
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	return m.nextMessageID, nil
}

func (m *fakeMessenger) Reply(_ context.Context, chatID, replyTo int64, text string) (int64, error) {
	if m.replyErr != nil {
		return 0, m.replyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMessageID++
	m.replies = append(m.replies, sentMessage{chatID: chatID, replyTo: replyTo, text: text})
	return m.nextMessageID, nil
}

func (m *fakeMessenger) SendDirect(_ context.Context, userID int64, text string) error {
	if m.directErr != nil {
		return m.directErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directs[userID] = append(m.directs[userID], text)
	return nil
}

func (m *fakeMessenger) Delete(_ context.Context, chatID, messageID int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, sentMessage{chatID: chatID, replyTo: messageID})
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Cleaner
// ─────────────────────────────────────────────────────────────────────────────

type scheduledDelete struct {
	chatID    int64
	messageID int64
	after     time.Duration
}

type fakeCleaner struct {
	mu        sync.Mutex
	scheduled []scheduledDelete
}

func (c *fakeCleaner) ScheduleDelete(chatID, messageID int64, after time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduled = append(c.scheduled, scheduledDelete{chatID: chatID, messageID: messageID, after: after})
}

// ─────────────────────────────────────────────────────────────────────────────
// Activity recorder
// ─────────────────────────────────────────────────────────────────────────────

type recordedActivity struct {
	action     activity.Action
	telegramID int64
	details    map[string]any
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedActivity
}

func (r *fakeRecorder) Record(_ context.Context, action activity.Action, telegramID int64, details map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedActivity{action: action, telegramID: telegramID, details: details})
}

func (r *fakeRecorder) actions() []activity.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]activity.Action, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.action)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Setting store
// ─────────────────────────────────────────────────────────────────────────────

type fakeSettings struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: make(map[string]string)}
}

func (s *fakeSettings) Get(_ context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", shared.ErrSettingNotFound
	}
	return value, nil
}

func (s *fakeSettings) Set(_ context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Message builders
// ─────────────────────────────────────────────────────────────────────────────

func groupMessage(chatID int64, from *telegram.User, messageID int64, text string) *telegram.Message {
	return &telegram.Message{
		MessageID: messageID,
		From:      from,
		Chat:      &telegram.Chat{ID: chatID, Type: "supergroup"},
		Text:      text,
	}
}

func commandMessage(chatID int64, from *telegram.User, messageID int64, text string) *telegram.Message {
	msg := groupMessage(chatID, from, messageID, text)

	commandLen := len(text)
	for i, c := range text {
		if c == ' ' {
			commandLen = i
			break
		}
	}
	msg.Entities = []telegram.MessageEntity{{Type: "bot_command", Offset: 0, Length: commandLen}}
	return msg
}
