package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Repository records sessions and the commands run in them.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateSession inserts a new session record.
func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO sessions (id, created_at, expires_at)
		VALUES ($1, $2, $3)
	`, s.ID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// CloseSession marks a session closed. Closing twice keeps the first
// reason.
func (r *Repository) CloseSession(ctx context.Context, id string, reason string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE sessions SET closed_at = $2, close_reason = $3
		WHERE id = $1 AND closed_at IS NULL
	`, id, time.Now().UTC(), reason)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RecordCommand appends a command to a session's history.
func (r *Repository) RecordCommand(ctx context.Context, c *Command) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO commands (session_id, line, command, output, error, duration_us, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		c.SessionID,
		c.Line,
		c.Command,
		c.Output,
		c.Error,
		c.DurationUS,
		c.ExecutedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// GetHistory returns the most recent commands of a session, oldest first.
func (r *Repository) GetHistory(ctx context.Context, sessionID string, limit int) ([]*Command, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, session_id, line, command, output, error, duration_us, executed_at
		FROM (
			SELECT * FROM commands WHERE session_id = $1
			ORDER BY id DESC LIMIT $2
		) recent
		ORDER BY id ASC
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var commands []*Command
	for rows.Next() {
		c := &Command{}
		if err := rows.Scan(
			&c.ID,
			&c.SessionID,
			&c.Line,
			&c.Command,
			&c.Output,
			&c.Error,
			&c.DurationUS,
			&c.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		commands = append(commands, c)
	}
	return commands, rows.Err()
}

// GetStats returns aggregate audit statistics.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM sessions WHERE closed_at IS NULL),
			(SELECT COUNT(*) FROM commands),
			(SELECT COUNT(*) FROM commands WHERE error IS NOT NULL)
	`).Scan(
		&stats.TotalSessions,
		&stats.OpenSessions,
		&stats.TotalCommands,
		&stats.FailedCommands,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}
