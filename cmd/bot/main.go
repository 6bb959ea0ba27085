// Package main is the entry point for the onboarding bot.
//
// The bot gates the main community group on a completed self-introduction:
// new members are restricted on join, coached toward the intro channel, and
// unrestricted once their intro passes validation or an admin clears them.
//
// The architecture follows Clean Architecture:
//   - Domain: the onboarding state machine, validator, and ports
//   - Infrastructure: PostgreSQL/Redis persistence, Telegram API client
//   - Interface: update routing, handlers, enforcement middleware, HTTP
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/superteam-my/onboarding-bot/config"
	"github.com/superteam-my/onboarding-bot/internal/infrastructure/external/telegram"
	"github.com/superteam-my/onboarding-bot/internal/infrastructure/persistence/postgres"
	redisq "github.com/superteam-my/onboarding-bot/internal/infrastructure/persistence/redis"
	"github.com/superteam-my/onboarding-bot/internal/infrastructure/scheduler"
	httpserver "github.com/superteam-my/onboarding-bot/internal/interface/http"
	tginterface "github.com/superteam-my/onboarding-bot/internal/interface/telegram"
	"github.com/superteam-my/onboarding-bot/internal/interface/telegram/handler"
	"github.com/superteam-my/onboarding-bot/internal/interface/telegram/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Persistence ──────────────────────────────────────────────────────────

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	conn, err := postgres.NewConnectionFromURL(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	err = postgres.NewMigrator(conn).Migrate(migrateCtx)
	cancel()
	if err != nil {
		return err
	}

	members := postgres.NewMemberRepository(conn)
	settings := postgres.NewSettingStore(conn)
	recorder := postgres.NewActivityRecorder(conn, logger)

	// Dashboard-managed settings win over the environment.
	if err := cfg.ApplyOverrides(ctx, settings, logger); err != nil {
		logger.Warn("could not load config overrides from database, using environment values", "error", err)
	}
	if err := cfg.ValidateChatIDs(); err != nil {
		return err
	}

	// ── Telegram ─────────────────────────────────────────────────────────────

	client := telegram.NewClient(telegram.DefaultClientConfig(cfg.BotToken))

	meCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	me, err := client.GetMe(meCtx)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("authenticated with telegram", "bot", me.Username)

	gateway := telegram.NewGateway(client, cfg.MainGroupID)
	messenger := telegram.NewMessenger(client)

	// ── Cleanup scheduler ────────────────────────────────────────────────────

	schedOpts := []scheduler.Option{scheduler.WithLogger(logger)}
	if cfg.RedisURL != "" {
		queue, err := redisq.NewCleanupQueue(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("cleanup queue unavailable, scheduled deletes will not survive restarts", "error", err)
		} else {
			defer queue.Close()
			schedOpts = append(schedOpts, scheduler.WithQueue(queue))
		}
	}

	cleaner := scheduler.NewCleanupScheduler(client, schedOpts...)
	cleaner.Start(ctx)
	defer cleaner.Stop()

	// ── Handlers ─────────────────────────────────────────────────────────────

	joinHandler := handler.NewJoinHandler(
		members, gateway, messenger, cleaner, settings, recorder, cfg.IntroChannelID, logger)
	introHandler := handler.NewIntroHandler(
		members, gateway, messenger, cleaner, recorder, logger)
	adminHandler := handler.NewAdminHandler(
		members, gateway, messenger, settings, recorder, logger)
	enforcement := middleware.NewEnforcement(
		members, gateway, messenger, cleaner, settings, recorder,
		cfg.EnforcementMode, cfg.IntroChannelID, logger)
	recovery := middleware.NewRecovery(logger)

	bot := tginterface.NewBot(client, joinHandler, introHandler, adminHandler,
		enforcement, recovery, tginterface.Config{
			MainGroupID:    cfg.MainGroupID,
			IntroChannelID: cfg.IntroChannelID,
		}, logger)

	// ── HTTP ─────────────────────────────────────────────────────────────────

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Port = cfg.HTTPPort
	server := httpserver.NewServer(httpCfg, conn, logger)

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- server.Start()
	}()

	logger.Info("onboarding bot is running",
		"main_group_id", cfg.MainGroupID,
		"intro_channel_id", cfg.IntroChannelID,
		"enforcement_mode", string(cfg.EnforcementMode))

	// ── Run until shutdown ───────────────────────────────────────────────────

	runErr := bot.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
	<-httpErr

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	logger.Info("shutdown complete")
	return nil
}
