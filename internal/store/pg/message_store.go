package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextlevelbuilder/ikigai/internal/store"
)

// MessageStore implements store.MessageStore over the messages table.
// Each agent runtime is driven by exactly one goroutine (the REPL/event
// loop, spec §5), so there is no need to serialize callers here beyond
// what database/sql's pool already gives us per in-flight query.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Append(ctx context.Context, agentUUID string, kind store.MessageKind, content, dataJSON string) (int64, error) {
	var contentArg, dataArg any
	if content != "" {
		contentArg = content
	}
	if dataJSON != "" {
		dataArg = dataJSON
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (agent_uuid, kind, content, data)
		 VALUES ($1, $2, $3, $4::jsonb)
		 RETURNING id`,
		agentUUID, string(kind), contentArg, dataArg,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append message: %w", err)
	}
	return id, nil
}

func (s *MessageStore) FindClear(ctx context.Context, agentUUID string, maxID int64) (int64, error) {
	var query string
	var row *sql.Row
	if maxID > 0 {
		query = `SELECT MAX(id) FROM messages WHERE agent_uuid = $1 AND kind = 'clear' AND id <= $2`
		row = s.db.QueryRowContext(ctx, query, agentUUID, maxID)
	} else {
		query = `SELECT MAX(id) FROM messages WHERE agent_uuid = $1 AND kind = 'clear'`
		row = s.db.QueryRowContext(ctx, query, agentUUID)
	}

	var clearID sql.NullInt64
	if err := row.Scan(&clearID); err != nil {
		return 0, fmt.Errorf("find clear: %w", err)
	}
	if !clearID.Valid {
		return 0, nil
	}
	return clearID.Int64, nil
}

func (s *MessageStore) QueryRange(ctx context.Context, r store.ReplayRange) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, content, data FROM messages
		 WHERE agent_uuid = $1 AND id > $2 AND ($3 = 0 OR id <= $3)
		 ORDER BY created_at`,
		r.AgentUUID, r.StartID, r.EndID,
	)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	defer rows.Close()

	var out []*store.Message
	for rows.Next() {
		m := &store.Message{AgentUUID: r.AgentUUID}
		var kind string
		var content, data sql.NullString
		if err := rows.Scan(&m.ID, &kind, &content, &data); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Kind = store.MessageKind(kind)
		m.Content = content.String
		m.DataJSON = data.String
		out = append(out, m)
	}
	return out, rows.Err()
}
