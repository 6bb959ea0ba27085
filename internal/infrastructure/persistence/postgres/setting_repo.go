package postgres

import (
	"context"
	"fmt"

	"github.com/superteam-my/onboarding-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SETTING STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SettingStore implements setting.Store for PostgreSQL. Reads always hit the
// database so a dashboard change is visible on the next decision.
type SettingStore struct {
	conn *Connection
}

// NewSettingStore creates a new SettingStore.
func NewSettingStore(conn *Connection) *SettingStore {
	return &SettingStore{conn: conn}
}

// Get returns the value for key.
func (s *SettingStore) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM settings WHERE key = $1`

	var value string
	err := s.conn.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if IsNoRows(err) {
			return "", shared.ErrSettingNotFound
		}
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}

	return value, nil
}

// Set stores the value for key, overwriting any previous value.
func (s *SettingStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`

	if _, err := s.conn.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}

	return nil
}
