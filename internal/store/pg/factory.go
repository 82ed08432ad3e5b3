package pg

import (
	"database/sql"
	"fmt"
)

// Stores is the set of Postgres-backed stores the runtime needs.
type Stores struct {
	Agents   *AgentStore
	Messages *MessageStore
	Sessions *SessionStore
	Schema   *SchemaStore
	DB       *sql.DB
}

// Open connects to Postgres and wires every store over the same pool.
func Open(dsn string) (*Stores, error) {
	db, err := OpenDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Stores{
		Agents:   NewAgentStore(db),
		Messages: NewMessageStore(db),
		Sessions: NewSessionStore(db),
		Schema:   NewSchemaStore(db),
		DB:       db,
	}, nil
}
