// Package telegram wires the update stream to the onboarding handlers.
package telegram

import (
	"context"
	"log/slog"
	"sync"

	tgclient "github.com/superteam-my/onboarding-bot/internal/infrastructure/external/telegram"
	"github.com/superteam-my/onboarding-bot/internal/interface/telegram/handler"
	"github.com/superteam-my/onboarding-bot/internal/interface/telegram/middleware"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// Routes long-polling updates to the join, intro, admin, and enforcement
// paths. Updates are processed concurrently under a bounded semaphore so one
// slow Telegram call cannot stall the stream.
// ══════════════════════════════════════════════════════════════════════════════

// defaultMaxConcurrent bounds in-flight update handlers.
const defaultMaxConcurrent = 16

// Bot is the top-level update dispatcher.
type Bot struct {
	client      *tgclient.Client
	join        *handler.JoinHandler
	intro       *handler.IntroHandler
	admin       *handler.AdminHandler
	enforcement *middleware.Enforcement
	recovery    *middleware.Recovery

	mainGroupID    int64
	introChannelID int64

	sem    chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger
}

// Config holds the Bot's routing configuration.
type Config struct {
	MainGroupID    int64
	IntroChannelID int64

	// MaxConcurrent bounds in-flight update handlers (default 16).
	MaxConcurrent int
}

// NewBot creates a Bot.
func NewBot(
	client *tgclient.Client,
	join *handler.JoinHandler,
	intro *handler.IntroHandler,
	admin *handler.AdminHandler,
	enforcement *middleware.Enforcement,
	recovery *middleware.Recovery,
	cfg Config,
	logger *slog.Logger,
) *Bot {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	return &Bot{
		client:         client,
		join:           join,
		intro:          intro,
		admin:          admin,
		enforcement:    enforcement,
		recovery:       recovery,
		mainGroupID:    cfg.MainGroupID,
		introChannelID: cfg.IntroChannelID,
		sem:            make(chan struct{}, maxConcurrent),
		logger:         logger.With("component", "bot"),
	}
}

// Run polls for updates until ctx is cancelled, then waits for in-flight
// handlers to drain.
func (b *Bot) Run(ctx context.Context) error {
	err := b.client.StartPolling(ctx, func(ctx context.Context, update *tgclient.Update) error {
		b.dispatch(ctx, update)
		return nil
	})

	b.wg.Wait()
	return err
}

// dispatch hands one update to its handler on a bounded goroutine.
func (b *Bot) dispatch(ctx context.Context, update *tgclient.Update) {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() { <-b.sem }()

		b.recovery.Wrap(ctx, update.UpdateID, func(ctx context.Context) {
			b.route(ctx, update)
		})
	}()
}

// route picks the handler for an update.
func (b *Bot) route(ctx context.Context, update *tgclient.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	switch {
	case len(msg.NewChatMembers) > 0:
		if msg.Chat.ID == b.mainGroupID {
			b.join.Handle(ctx, msg)
		}

	case msg.Chat.ID == b.introChannelID:
		b.intro.Handle(ctx, msg)

	case tgclient.ExtractCommand(msg) != "":
		b.admin.Handle(ctx, msg)

	case msg.Chat.ID == b.mainGroupID:
		b.enforcement.Process(ctx, msg)
	}
}
