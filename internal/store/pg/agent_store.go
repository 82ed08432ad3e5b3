package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextlevelbuilder/ikigai/internal/store"
)

// AgentStore implements store.AgentStore over the agents table.
type AgentStore struct {
	db *sql.DB
}

func NewAgentStore(db *sql.DB) *AgentStore {
	return &AgentStore{db: db}
}

func (s *AgentStore) Insert(ctx context.Context, a *store.Agent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (uuid, parent_uuid, name, session_id, status, idle,
		                      provider, model, thinking_level, created_at, ended_at, fork_message_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.UUID, nullIfEmpty(a.ParentUUID), nullIfEmpty(a.Name), a.SessionID,
		string(a.Status), a.Idle, nullIfEmpty(a.Provider), nullIfEmpty(a.Model),
		string(a.ThinkingLevel), a.CreatedAt, a.EndedAt, a.ForkMessageID,
	)
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

func (s *AgentStore) Get(ctx context.Context, uuid string) (*store.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT uuid, parent_uuid, name, session_id, status, idle,
		        provider, model, thinking_level, created_at, ended_at, fork_message_id
		 FROM agents WHERE uuid = $1`, uuid)
	return scanAgent(row)
}

func (s *AgentStore) ListRunning(ctx context.Context) ([]*store.Agent, error) {
	return s.listWhere(ctx, `status = 'running'`)
}

func (s *AgentStore) ListActive(ctx context.Context) ([]*store.Agent, error) {
	return s.listWhere(ctx, `status IN ('running', 'dead')`)
}

func (s *AgentStore) listWhere(ctx context.Context, where string) ([]*store.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, parent_uuid, name, session_id, status, idle,
		        provider, model, thinking_level, created_at, ended_at, fork_message_id
		 FROM agents WHERE `+where+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []*store.Agent
	for rows.Next() {
		a, err := scanAgentRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkDead flips status to 'dead' only for rows currently 'running'
// (idempotent per spec §3 Agent lifecycle).
func (s *AgentStore) MarkDead(ctx context.Context, uuid string, endedAt int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE agents SET status = 'dead', ended_at = $2 WHERE uuid = $1 AND status = 'running'`,
		uuid, endedAt)
	if err != nil {
		return fmt.Errorf("mark agent dead: %w", err)
	}
	return nil
}

func (s *AgentStore) MarkReaped(ctx context.Context, uuid string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE agents SET status = 'reaped' WHERE uuid = $1 AND status = 'dead'`, uuid)
	if err != nil {
		return fmt.Errorf("mark agent reaped: %w", err)
	}
	return nil
}

func (s *AgentStore) SetIdle(ctx context.Context, uuid string, idle bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE agents SET idle = $2 WHERE uuid = $1`, uuid, idle)
	if err != nil {
		return fmt.Errorf("set agent idle: %w", err)
	}
	return nil
}

func (s *AgentStore) UpdateProvider(ctx context.Context, uuid, provider, model string, thinking store.ThinkingLevel) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE agents SET provider = $2, model = $3, thinking_level = $4 WHERE uuid = $1`,
		uuid, nullIfEmpty(provider), nullIfEmpty(model), string(thinking))
	if err != nil {
		return fmt.Errorf("update agent provider: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAgent(row *sql.Row) (*store.Agent, error) {
	return scanAgentGeneric(row)
}

func scanAgentRows(rows *sql.Rows) (*store.Agent, error) {
	return scanAgentGeneric(rows)
}

func scanAgentGeneric(s scanner) (*store.Agent, error) {
	a := &store.Agent{}
	var parentUUID, name, provider, model, status, thinking sql.NullString
	if err := s.Scan(&a.UUID, &parentUUID, &name, &a.SessionID, &status, &a.Idle,
		&provider, &model, &thinking, &a.CreatedAt, &a.EndedAt, &a.ForkMessageID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		return nil, fmt.Errorf("scan agent: %w", err)
	}
	a.ParentUUID = parentUUID.String
	a.Name = name.String
	a.Provider = provider.String
	a.Model = model.String
	a.Status = store.AgentStatus(status.String)
	a.ThinkingLevel = store.ThinkingLevel(thinking.String)
	return a, nil
}
