// Package store defines the relational schema types for ikigai's core:
// agents, messages, and process sessions, plus the interfaces their
// Postgres-backed implementations satisfy (internal/store/pg).
package store

import "time"

// ThinkingLevel is a provider-agnostic extended-thinking setting.
type ThinkingLevel string

const (
	ThinkingNone ThinkingLevel = "none"
	ThinkingLow  ThinkingLevel = "low"
	ThinkingMed  ThinkingLevel = "med"
	ThinkingHigh ThinkingLevel = "high"
)

// AgentStatus tracks an agent row's lifecycle.
type AgentStatus string

const (
	AgentRunning AgentStatus = "running"
	AgentDead    AgentStatus = "dead"
	AgentReaped  AgentStatus = "reaped"
)

// Agent is one row of the agents table: identity plus the persisted slice
// of runtime configuration (provider/model/thinking level).
type Agent struct {
	UUID            string
	ParentUUID      string // "" iff root
	Name            string // "" iff unnamed
	SessionID       int64
	Status          AgentStatus
	Idle            bool
	Provider        string
	Model           string
	ThinkingLevel   ThinkingLevel
	CreatedAt       int64
	EndedAt         int64
	ForkMessageID   int64 // 0 iff root
}

// IsRoot reports whether this agent is agent zero.
func (a *Agent) IsRoot() bool { return a.ParentUUID == "" }

// MessageKind is the closed set of message kinds persisted to the log.
type MessageKind string

const (
	MsgUser        MessageKind = "user"
	MsgAssistant   MessageKind = "assistant"
	MsgToolCall    MessageKind = "tool_call"
	MsgToolResult  MessageKind = "tool_result"
	MsgThinking    MessageKind = "thinking"
	MsgClear       MessageKind = "clear"
	MsgInterrupted MessageKind = "interrupted"
)

// Message is one append-only row of the messages table.
type Message struct {
	ID        int64
	AgentUUID string
	Kind      MessageKind
	Content   string // "" means NULL
	DataJSON  string // "" means NULL
	CreatedAt time.Time
}

// Session is a single process run. At most one row has EndedAt.IsZero() at
// any moment.
type Session struct {
	ID        int64
	StartedAt time.Time
	EndedAt   time.Time // zero value means still open
}

// ReplayRange is a half-open id interval (start_id, end_id] scoped to one
// agent; end_id == 0 means unbounded.
type ReplayRange struct {
	AgentUUID string
	StartID   int64
	EndID     int64
}
