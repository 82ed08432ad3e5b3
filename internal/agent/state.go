// Package agent drives a single agent's conversation through the state
// machine in spec §4.1: IDLE accepts user input, WAITING_FOR_LLM calls the
// provider, EXECUTING_TOOL dispatches a tool call and waits for it to
// finish (or for an interrupt) before returning to WAITING_FOR_LLM with the
// result appended.
package agent

// State is the agent's position in the IDLE/WAITING_FOR_LLM/EXECUTING_TOOL
// cycle. Initial and terminal state is Idle.
type State string

const (
	StateIdle          State = "idle"
	StateWaitingForLLM State = "waiting_for_llm"
	StateExecutingTool State = "executing_tool"
)

// pendingToolCall is the single in-flight tool call the state machine is
// waiting on. The source models pending_tool_call as a single optional
// field, so a response with multiple tool_use blocks dispatches only the
// first; any further blocks are persisted as tool_call messages but never
// executed in that turn (see DESIGN.md).
type pendingToolCall struct {
	id            string
	name          string
	argumentsJSON string
}
