// Package providers defines the provider-agnostic request/response/event
// surface (spec §4.2) and its Anthropic implementation (spec §4.3).
package providers

import (
	"context"
	"encoding/json"
)

// Provider is the capability set every provider adapter implements: a
// single blocking call plus a streaming call that returns events on a
// channel. Cancellation is via ctx, replacing the source's async-signal-safe
// cancel() with the idiomatic Go mechanism.
type Provider interface {
	Name() string
	DefaultModel() string
	SupportsThinking(model string) bool

	// Start performs one non-streaming request.
	Start(ctx context.Context, req Request) (*Response, error)

	// StartStream performs one streaming request. The returned channel is
	// closed after an EventDone or EventError event; events are emitted in
	// protocol order, synchronously with respect to each other.
	StartStream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// ThinkingLevel is the provider-agnostic extended-thinking setting.
type ThinkingLevel string

const (
	ThinkingNone ThinkingLevel = "none"
	ThinkingLow  ThinkingLevel = "low"
	ThinkingMed  ThinkingLevel = "med"
	ThinkingHigh ThinkingLevel = "high"
)

// Role is a message's speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// BlockType discriminates the tagged variants of Block.
type BlockType string

const (
	BlockText             BlockType = "text"
	BlockThinking         BlockType = "thinking"
	BlockRedactedThinking BlockType = "redacted_thinking"
	BlockToolUse          BlockType = "tool_use"
	BlockToolResult       BlockType = "tool_result"
)

// Block is one tagged content block within a Message. Only the fields
// relevant to Type are populated.
type Block struct {
	Type BlockType

	Text string // BlockText, BlockThinking

	Signature    string // BlockThinking, once signature_delta arrives
	RedactedData string // BlockRedactedThinking

	ToolUseID   string          // BlockToolUse, BlockToolResult
	ToolName    string          // BlockToolUse
	ToolInput   json.RawMessage // BlockToolUse
	ToolIsError bool            // BlockToolResult
	ToolResult  string          // BlockToolResult
}

// Message is one turn of conversation passed to a provider.
type Message struct {
	Role   Role
	Blocks []Block
}

// ToolDefinition describes one tool the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema
}

// ToolChoice constrains whether/which tool the model must call.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// Request is one provider call: the full conversation plus generation
// options.
type Request struct {
	Model         string
	MaxTokens     int // default 4096 if unset or <= 0
	SystemPrompt  string
	Messages      []Message
	Tools         []ToolDefinition
	ToolChoice    ToolChoice
	ThinkingLevel ThinkingLevel
}

// FinishReason is the provider-agnostic reason generation stopped.
type FinishReason string

const (
	FinishStop         FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishToolUse       FinishReason = "tool_use"
	FinishContentFilter FinishReason = "content_filter"
	FinishUnknown       FinishReason = "unknown"
)

// Usage tracks token consumption for one request.
type Usage struct {
	InputTokens    int
	OutputTokens   int
	ThinkingTokens int
	TotalTokens    int
}

// Response is the complete, non-streaming result of a provider call.
type Response struct {
	Model        string
	Blocks       []Block
	FinishReason FinishReason
	Usage        Usage
}

// ErrorCategory classifies provider failures for retry policy (spec §7).
type ErrorCategory string

const (
	ErrAuth       ErrorCategory = "auth"
	ErrRateLimit  ErrorCategory = "rate_limit"
	ErrServer     ErrorCategory = "server"
	ErrInvalidArg ErrorCategory = "invalid_arg"
	ErrNotFound   ErrorCategory = "not_found"
	ErrUnknown    ErrorCategory = "unknown"
)

// StreamEventKind discriminates the tagged variants of StreamEvent.
type StreamEventKind string

const (
	EventStart             StreamEventKind = "start"
	EventTextDelta         StreamEventKind = "text_delta"
	EventThinkingDelta     StreamEventKind = "thinking_delta"
	EventThinkingSignature StreamEventKind = "thinking_signature"
	EventRedactedThinking  StreamEventKind = "redacted_thinking"
	EventToolCallStart     StreamEventKind = "tool_call_start"
	EventToolCallDelta     StreamEventKind = "tool_call_delta"
	EventToolCallDone      StreamEventKind = "tool_call_done"
	EventDone              StreamEventKind = "done"
	EventError             StreamEventKind = "error"
)

// StreamEvent is one value emitted on a streaming response's event channel.
// Only the fields relevant to Kind are populated.
type StreamEvent struct {
	Kind StreamEventKind

	Model string // EventStart

	Index int    // EventTextDelta, EventThinkingDelta, EventToolCallStart/Delta/Done
	Text  string // EventTextDelta, EventThinkingDelta

	Signature    string // EventThinkingSignature
	RedactedData string // EventRedactedThinking

	ToolCallID   string // EventToolCallStart
	ToolCallName string // EventToolCallStart
	PartialJSON  string // EventToolCallDelta

	FinishReason FinishReason // EventDone
	Usage        Usage        // EventDone

	ErrorCategory ErrorCategory // EventError
	ErrorMessage  string        // EventError
}
