package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextlevelbuilder/ikigai/internal/store"
)

// SessionStore implements store.SessionStore over the sessions table.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Open(ctx context.Context) (*store.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin open session: %w", err)
	}
	defer tx.Rollback()

	// Crash recovery: supersede any session left open by an unclean shutdown.
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET ended_at = now() WHERE ended_at IS NULL`); err != nil {
		return nil, fmt.Errorf("close stale sessions: %w", err)
	}

	row := &store.Session{}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sessions (started_at) VALUES (now()) RETURNING id, started_at`,
	).Scan(&row.ID, &row.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit open session: %w", err)
	}
	return row, nil
}

func (s *SessionStore) End(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = now() WHERE id = $1 AND ended_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (s *SessionStore) Current(ctx context.Context) (*store.Session, error) {
	row := &store.Session{}
	var endedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, ended_at FROM sessions ORDER BY started_at DESC, id DESC LIMIT 1`,
	).Scan(&row.ID, &row.StartedAt, &endedAt)
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if endedAt.Valid {
		row.EndedAt = endedAt.Time
	}
	return row, nil
}
