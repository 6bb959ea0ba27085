// Package handler contains the Telegram update handlers for the onboarding
// flow. Each handler follows the pattern: receive update → validate → act on
// the member store → respond.
package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/superteam-my/onboarding-bot/internal/domain/setting"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE TEXTS
// Defaults live here; the welcome and example texts can be overridden from the
// admin dashboard via the settings table.
// ══════════════════════════════════════════════════════════════════════════════

// Transient message lifetimes.
const (
	// WelcomeFallbackTTL is how long the in-group welcome fallback stays up.
	WelcomeFallbackTTL = 60 * time.Second

	// FeedbackTTL is how long intro rejection feedback stays up.
	FeedbackTTL = 60 * time.Second

	// ReminderTTL is how long the enforcement reminder stays up.
	ReminderTTL = 30 * time.Second
)

const defaultWelcome = `👋 Welcome to Superteam MY!

To get started, please introduce yourself in the Intro Channel using this format 👇

This helps everyone get context and makes collaboration easier.

📝 Intro format:
• Who are you & what do you do?
• Where are you based?
• One fun fact about you
• How are you looking to contribute to Superteam MY?

No pressure to be perfect — just be you!`

const defaultExample = `✨ Example intro

Hey everyone! I'm Marianne 👋
Together with Han, we are Co-Leads of Superteam Malaysia!

📍 Based in Kuala Lumpur and Network School
🧑‍🎓 Fun fact: My first Solana project was building an AI Telegram trading bot, and that's how I found myself in Superteam MY!
🤝 Looking to contribute by:
• Connecting builders with the right mentors, partners, and opportunities
• Helping teams refine their story, demos, and go-to-market
• Supporting members who want to go from "building quietly" → "shipping publicly"

Excited to build alongside all of you — feel free to reach out anytime 🙌`

// IntroChannelLink builds the public t.me deep link for a channel ID. Channel
// IDs carry a -100 prefix on the wire that the link format drops.
func IntroChannelLink(introChannelID int64) string {
	id := strings.TrimPrefix(fmt.Sprintf("%d", introChannelID), "-100")
	return "https://t.me/c/" + id
}

// WelcomeMessage assembles the onboarding instructions: the welcome text
// (settings override or default), the intro channel link, and the example
// intro (settings override or default). Settings are read fresh so a
// dashboard edit shows up on the very next join.
func WelcomeMessage(ctx context.Context, settings setting.Store, introChannelID int64) string {
	welcome := defaultWelcome
	if custom, err := settings.Get(ctx, setting.KeyWelcomeMessage); err == nil && custom != "" {
		welcome = custom
	}

	example := defaultExample
	if custom, err := settings.Get(ctx, setting.KeyIntroExample); err == nil && custom != "" {
		example = custom
	}

	return fmt.Sprintf("%s\n\n👉 Post your intro here: %s\n\n%s",
		welcome, IntroChannelLink(introChannelID), example)
}

// ReminderMessage is posted when enforcement deletes a message from a member
// who has not introduced themselves yet.
func ReminderMessage(introChannelID int64) string {
	return fmt.Sprintf("⏳ Hey! You haven't introduced yourself yet.\nPlease post your intro in the Intro Channel first, then you'll be able to chat here.\n\n👉 %s",
		IntroChannelLink(introChannelID))
}

// CongratsMessage is posted as a reply to an accepted intro.
func CongratsMessage(firstName string) string {
	return fmt.Sprintf("🎉 Thanks for introducing yourself, %s! You now have full access to the group. Welcome aboard!", firstName)
}

// IntroFeedbackMessage is posted as a reply to a rejected intro.
func IntroFeedbackMessage() string {
	return "Thanks for your intro! Could you expand it a bit? Try to include:\n• Who you are & what you do\n• Where you're based\n• A fun fact\n• How you'd like to contribute\n\nNo pressure — just helps everyone get to know you better! 😊"
}
