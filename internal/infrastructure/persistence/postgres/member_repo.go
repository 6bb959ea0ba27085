package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/superteam-my/onboarding-bot/internal/domain/member"
	"github.com/superteam-my/onboarding-bot/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const memberColumns = `telegram_id, username, first_name, intro_status,
		   intro_message_id, joined_at, intro_completed_at, created_at, updated_at`

// MemberRepository implements member.Repository for PostgreSQL.
type MemberRepository struct {
	conn *Connection
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(conn *Connection) *MemberRepository {
	return &MemberRepository{conn: conn}
}

// GetByTelegramID returns a member by Telegram ID.
func (r *MemberRepository) GetByTelegramID(ctx context.Context, telegramID member.TelegramID) (*member.Member, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM members
		WHERE telegram_id = $1
	`, memberColumns)

	row := r.conn.QueryRow(ctx, query, int64(telegramID))
	return r.scanMember(row)
}

// Upsert creates the member if absent or refreshes the name fields of an
// existing record. The intro status of an existing member is never touched:
// a returning member keeps the state they earned.
func (r *MemberRepository) Upsert(ctx context.Context, telegramID member.TelegramID, username, firstName string) (*member.Member, error) {
	if !telegramID.IsValid() {
		return nil, shared.ErrInvalidTelegramID
	}

	query := fmt.Sprintf(`
		INSERT INTO members (telegram_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			updated_at = NOW()
		RETURNING %s
	`, memberColumns)

	row := r.conn.QueryRow(ctx, query, int64(telegramID), username, firstName)
	m, err := r.scanMember(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert member: %w", err)
	}

	return m, nil
}

// UpdateIntroStatus advances a member's status in a single conditional UPDATE.
// The WHERE clause carries the legal source states, so the read-modify-write
// is atomic at the store and the transition can never regress a status.
func (r *MemberRepository) UpdateIntroStatus(ctx context.Context, telegramID member.TelegramID, status member.IntroStatus, introMessageID *int64) (*member.Member, error) {
	if !status.IsValid() || status == member.StatusPending {
		return nil, shared.ErrInvalidStatus
	}

	// completed only applies to pending members; approved applies to anyone
	// not yet approved.
	fromStates := []string{string(member.StatusPending)}
	if status == member.StatusApproved {
		fromStates = append(fromStates, string(member.StatusCompleted))
	}

	query := fmt.Sprintf(`
		UPDATE members SET
			intro_status = $1,
			intro_message_id = COALESCE($2, intro_message_id),
			intro_completed_at = NOW(),
			updated_at = NOW()
		WHERE telegram_id = $3 AND intro_status = ANY($4)
		RETURNING %s
	`, memberColumns)

	row := r.conn.QueryRow(ctx, query, string(status), introMessageID, int64(telegramID), fromStates)
	m, err := r.scanMember(row)
	if err == nil {
		return m, nil
	}
	if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("failed to update intro status: %w", err)
	}

	// No row matched: distinguish "missing" from "transition did not apply".
	if _, getErr := r.GetByTelegramID(ctx, telegramID); getErr != nil {
		return nil, getErr
	}
	return nil, shared.ErrInvalidStatus
}

// ResetIntroStatus moves a member back to pending, clearing the completion
// record.
func (r *MemberRepository) ResetIntroStatus(ctx context.Context, telegramID member.TelegramID) (*member.Member, error) {
	query := fmt.Sprintf(`
		UPDATE members SET
			intro_status = 'pending',
			intro_message_id = NULL,
			intro_completed_at = NULL,
			updated_at = NOW()
		WHERE telegram_id = $1
		RETURNING %s
	`, memberColumns)

	row := r.conn.QueryRow(ctx, query, int64(telegramID))
	m, err := r.scanMember(row)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to reset intro status: %w", err)
	}

	return m, nil
}

// GetStats returns aggregate counts per onboarding state in one query.
func (r *MemberRepository) GetStats(ctx context.Context) (member.Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE intro_status = 'pending'),
			COUNT(*) FILTER (WHERE intro_status = 'completed'),
			COUNT(*) FILTER (WHERE intro_status = 'approved')
		FROM members
	`

	var stats member.Stats
	err := r.conn.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Completed,
		&stats.Approved,
	)
	if err != nil {
		return member.Stats{}, fmt.Errorf("failed to query member stats: %w", err)
	}

	return stats, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

// scanMember scans a single member row.
func (r *MemberRepository) scanMember(row pgx.Row) (*member.Member, error) {
	var (
		m              member.Member
		telegramID     int64
		username       *string
		firstName      *string
		status         string
		introMessageID *int64
		completedAt    *time.Time
	)

	err := row.Scan(
		&telegramID,
		&username,
		&firstName,
		&status,
		&introMessageID,
		&m.JoinedAt,
		&completedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMemberNotFound
		}
		return nil, err
	}

	m.TelegramID = member.TelegramID(telegramID)
	if username != nil {
		m.Username = *username
	}
	if firstName != nil {
		m.FirstName = *firstName
	}
	m.IntroStatus = member.IntroStatus(status)
	m.IntroMessageID = introMessageID
	m.IntroCompletedAt = completedAt

	return &m, nil
}
