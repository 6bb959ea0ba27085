package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE MEMBERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create members table
-- Version: 001

CREATE TABLE IF NOT EXISTS members (
    telegram_id BIGINT PRIMARY KEY,
    username TEXT,
    first_name TEXT,
    intro_status VARCHAR(20) NOT NULL DEFAULT 'pending',
    intro_message_id BIGINT,
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    intro_completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_intro_status CHECK (intro_status IN ('pending', 'completed', 'approved'))
);

CREATE INDEX IF NOT EXISTS idx_members_intro_status ON members(intro_status);
CREATE INDEX IF NOT EXISTS idx_members_joined_at ON members(joined_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS members;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create settings table
-- Version: 002
-- The admin dashboard writes this table; the bot reads it fresh per decision.

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration002Down = `
DROP TABLE IF EXISTS settings;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE ACTIVITY LOG
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create activity log
-- Version: 003
-- Append-only audit trail; the bot only ever inserts.

CREATE TABLE IF NOT EXISTS activity_log (
    id UUID PRIMARY KEY,
    action VARCHAR(50) NOT NULL,
    telegram_id BIGINT NOT NULL,
    details JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_activity_log_telegram_id ON activity_log(telegram_id);
CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_activity_log_action ON activity_log(action);
`

const migration003Down = `
DROP TABLE IF EXISTS activity_log;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_members",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_settings",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_activity_log",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}
