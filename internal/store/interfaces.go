package store

import "context"

// MessageStore is the append-only message log (spec §4.4).
type MessageStore interface {
	// Append inserts a new message and returns its assigned id.
	Append(ctx context.Context, agentUUID string, kind MessageKind, content, dataJSON string) (int64, error)

	// FindClear returns the id of the most recent 'clear' message with
	// id <= maxID (maxID == 0 means unbounded), or 0 if none exists.
	FindClear(ctx context.Context, agentUUID string, maxID int64) (int64, error)

	// QueryRange returns messages in range, ordered by created_at.
	QueryRange(ctx context.Context, r ReplayRange) ([]*Message, error)
}

// AgentStore is the agent registry (spec §4 item 3).
type AgentStore interface {
	Insert(ctx context.Context, a *Agent) error
	Get(ctx context.Context, uuid string) (*Agent, error)
	ListRunning(ctx context.Context) ([]*Agent, error)
	ListActive(ctx context.Context) ([]*Agent, error)
	MarkDead(ctx context.Context, uuid string, endedAt int64) error
	MarkReaped(ctx context.Context, uuid string) error
	SetIdle(ctx context.Context, uuid string, idle bool) error
	UpdateProvider(ctx context.Context, uuid, provider, model string, thinking ThinkingLevel) error
}

// SessionStore manages the process-run sessions table (spec §3 Session).
type SessionStore interface {
	// Open ends any session left with a NULL ended_at (crash recovery),
	// then inserts and returns a new open session.
	Open(ctx context.Context) (*Session, error)
	End(ctx context.Context, id int64) error
	// Current returns the most recently started session (by started_at
	// desc, id desc), open or not.
	Current(ctx context.Context) (*Session, error)
}

// SchemaStore exposes schema_metadata.schema_version to migration tooling
// and the doctor subcommand.
type SchemaStore interface {
	SchemaVersion(ctx context.Context) (int, error)
}
