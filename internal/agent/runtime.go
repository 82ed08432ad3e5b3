package agent

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nextlevelbuilder/ikigai/internal/id"
	"github.com/nextlevelbuilder/ikigai/internal/metrics"
	"github.com/nextlevelbuilder/ikigai/internal/prompt"
	"github.com/nextlevelbuilder/ikigai/internal/providers"
	"github.com/nextlevelbuilder/ikigai/internal/replay"
	"github.com/nextlevelbuilder/ikigai/internal/store"
	"github.com/nextlevelbuilder/ikigai/internal/template"
	"github.com/nextlevelbuilder/ikigai/internal/tools"
)

// replaySource adapts an AgentStore+MessageStore pair to replay.Source.
type replaySource struct {
	agents   store.AgentStore
	messages store.MessageStore
}

func (s replaySource) FindClear(ctx context.Context, agentUUID string, maxID int64) (int64, error) {
	return s.messages.FindClear(ctx, agentUUID, maxID)
}
func (s replaySource) QueryRange(ctx context.Context, r store.ReplayRange) ([]*store.Message, error) {
	return s.messages.QueryRange(ctx, r)
}
func (s replaySource) Get(ctx context.Context, uuid string) (*store.Agent, error) {
	return s.agents.Get(ctx, uuid)
}

// Config configures a Runtime for one agent.
type Config struct {
	AgentUUID string

	Agents   store.AgentStore
	Messages store.MessageStore

	Provider      providers.Provider
	Model         string
	MaxToolTurns  int // spec §4.1 tool-turn budget; <=0 treated as unbounded
	ThinkingLevel providers.ThinkingLevel

	PromptResolver *prompt.Resolver
	PinnedDocs     []string
	AgentCtx       *template.AgentContext
	ConfigCtx      template.ConfigContext

	Metrics *metrics.Metrics // optional; nil disables instrumentation
}

// Runtime drives one agent's conversation through the IDLE/WAITING_FOR_LLM/
// EXECUTING_TOOL state machine (spec §4.1). Mutation of runtime state is
// confined to the goroutine calling Turn, except for the result channel the
// tool worker writes to — the idiomatic-Go analogue of the source's
// mutex-guarded thread_result/complete fields.
type Runtime struct {
	cfg    Config
	source replaySource

	mu             sync.Mutex
	state          State
	iterationCount int
	pending        *pendingToolCall
}

// New constructs a Runtime for one agent. cfg.MaxToolTurns <= 0 means
// unbounded (no limit-reached annotation is ever injected).
func New(cfg Config) *Runtime {
	return &Runtime{
		cfg:    cfg,
		source: replaySource{agents: cfg.Agents, messages: cfg.Messages},
		state:  StateIdle,
	}
}

// State returns the runtime's current state.
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runtime) setState(s State) {
	r.mu.Lock()
	from := r.state
	r.state = s
	r.mu.Unlock()
	if r.cfg.Metrics != nil && from != s {
		r.cfg.Metrics.StateTransitions.WithLabelValues(string(from), string(s)).Inc()
	}
}

// TurnResult is what one call to Turn produced.
type TurnResult struct {
	Content     string   // final assistant text, "" if interrupted before one was produced
	Warnings    []string // scrollback warning lines (spec §7)
	Interrupted bool
}

// Turn drives one full user turn: append the user message, then loop
// WAITING_FOR_LLM -> (EXECUTING_TOOL -> WAITING_FOR_LLM)* -> IDLE, following
// the transition table in spec §4.1. Cancelling ctx models an interrupt
// request: the in-flight provider call is abandoned (a running tool worker is
// waited for and its result discarded), an 'interrupted' marker is appended,
// and the runtime returns to IDLE.
func (r *Runtime) Turn(ctx context.Context, userInput string) (*TurnResult, error) {
	r.setState(StateWaitingForLLM)

	if _, err := r.cfg.Messages.Append(ctx, r.cfg.AgentUUID, store.MsgUser, userInput, ""); err != nil {
		r.setState(StateIdle)
		return nil, err
	}

	var warnings []string

	for {
		select {
		case <-ctx.Done():
			return r.interrupt(warnings)
		default:
		}

		history, err := replay.History(ctx, r.source, r.cfg.AgentUUID)
		if err != nil {
			r.setState(StateIdle)
			return nil, err
		}

		systemPrompt, pwarn, err := r.cfg.PromptResolver.Resolve(r.cfg.PinnedDocs, r.cfg.AgentCtx, r.cfg.ConfigCtx)
		warnings = append(warnings, pwarn...)
		if err != nil {
			r.setState(StateIdle)
			return nil, err
		}

		req := providers.Request{
			Model:         r.cfg.Model,
			SystemPrompt:  systemPrompt,
			Messages:      toProviderMessages(history),
			Tools:         tools.Definitions(),
			ToolChoice:    providers.ToolChoiceAuto,
			ThinkingLevel: r.cfg.ThinkingLevel,
		}

		start := time.Now()
		resp, err := r.callProvider(ctx, req)
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.ProviderRequestDuration.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			if r.cfg.Metrics != nil {
				r.cfg.Metrics.SSEErrors.WithLabelValues(string(id.KindOf(err))).Inc()
			}
			if ctx.Err() != nil {
				return r.interrupt(warnings)
			}
			if _, aerr := r.cfg.Messages.Append(context.Background(), r.cfg.AgentUUID, store.MsgInterrupted, "", ""); aerr != nil {
				warnings = append(warnings, "failed to record interruption: "+aerr.Error())
			}
			r.endTurn()
			return &TurnResult{Warnings: append(warnings, "provider error: "+err.Error())}, err
		}

		if err := r.persistBlocks(ctx, resp.Blocks); err != nil {
			r.setState(StateIdle)
			return nil, err
		}

		toolUse, hasToolUse := firstToolUse(resp.Blocks)
		continuing := resp.FinishReason == providers.FinishToolUse && hasToolUse &&
			(r.cfg.MaxToolTurns <= 0 || r.iterationCount < r.cfg.MaxToolTurns)

		if !continuing {
			r.endTurn()
			return &TurnResult{Content: extractText(resp.Blocks), Warnings: warnings}, nil
		}

		resultJSON, interrupted, err := r.runTool(ctx, toolUse)
		if interrupted {
			return r.interrupt(warnings)
		}
		if err != nil {
			r.setState(StateIdle)
			return nil, err
		}

		r.mu.Lock()
		r.iterationCount++
		atLimit := r.cfg.MaxToolTurns > 0 && r.iterationCount >= r.cfg.MaxToolTurns
		r.pending = nil
		r.mu.Unlock()
		r.setState(StateWaitingForLLM)

		if atLimit {
			if injected := tools.InjectLimitReached(resultJSON, r.cfg.MaxToolTurns); injected != "" {
				resultJSON = injected
			}
			if r.cfg.Metrics != nil {
				r.cfg.Metrics.ToolTurnLimitReached.Inc()
			}
		}

		if err := r.appendToolResult(ctx, toolUse.ToolUseID, resultJSON); err != nil {
			r.setState(StateIdle)
			return nil, err
		}
	}
}

// callProvider drives one provider round trip over the streaming event
// channel (spec §4.2's provider-driver-ticked-each-event-loop-turn data
// flow) and assembles the result in the same shape the blocking call would
// have returned, so the rest of Turn stays agnostic to how the round trip
// was carried out.
func (r *Runtime) callProvider(ctx context.Context, req providers.Request) (*providers.Response, error) {
	events, err := r.cfg.Provider.StartStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return providers.CollectResponse(ctx, events)
}

// runTool dispatches one tool call on a worker goroutine and waits for it
// to finish — the channel-based analogue of the source's mutex-guarded
// thread_result/complete contract (spec §4.1). If ctx is cancelled first, it
// still waits for the worker to return, then reports the call as interrupted.
func (r *Runtime) runTool(ctx context.Context, call providers.Block) (resultJSON string, interrupted bool, err error) {
	r.mu.Lock()
	r.pending = &pendingToolCall{id: call.ToolUseID, name: call.ToolName, argumentsJSON: string(call.ToolInput)}
	r.mu.Unlock()
	r.setState(StateExecutingTool)

	// The tool_call row for this call was already persisted by persistBlocks
	// (it's one of resp.Blocks) before runTool was ever invoked.

	resultCh := make(chan string, 1)
	go func() {
		resultCh <- tools.Dispatch(ctx, call.ToolName, string(call.ToolInput))
	}()

	select {
	case result := <-resultCh:
		if r.cfg.Metrics != nil {
			outcome := "success"
			if tools.IsError(result) {
				outcome = "error"
			}
			r.cfg.Metrics.ToolTurns.WithLabelValues(call.ToolName, outcome).Inc()
		}
		return result, false, nil
	case <-ctx.Done():
		// Join the worker before reporting the interrupt; its result is discarded.
		<-resultCh
		return "", true, nil
	}
}

// interrupt handles an interrupt request observed while WAITING_FOR_LLM or
// EXECUTING_TOOL: any tool worker has already been joined by runTool and its
// result discarded, so interrupt appends the interrupted marker and returns
// to IDLE.
func (r *Runtime) interrupt(warnings []string) (*TurnResult, error) {
	bg := context.Background()
	if _, err := r.cfg.Messages.Append(bg, r.cfg.AgentUUID, store.MsgInterrupted, "", ""); err != nil {
		warnings = append(warnings, "failed to record interruption: "+err.Error())
	}
	r.endTurn()
	return &TurnResult{Warnings: warnings, Interrupted: true}, nil
}

// endTurn resets the state machine to IDLE and clears iteration_count, as
// happens on every non-tool finish reason (spec §4.1).
func (r *Runtime) endTurn() {
	r.mu.Lock()
	r.iterationCount = 0
	r.pending = nil
	r.mu.Unlock()
	r.setState(StateIdle)
}

func (r *Runtime) appendToolResult(ctx context.Context, toolCallID, resultJSON string) error {
	data, _ := json.Marshal(toolResultData{
		ToolCallID: toolCallID,
		Content:    resultJSON,
		IsError:    tools.IsError(resultJSON),
	})
	_, err := r.cfg.Messages.Append(ctx, r.cfg.AgentUUID, store.MsgToolResult, "", string(data))
	return err
}

// persistBlocks appends one message row per content block, in order
// (spec §3: each block type is its own row).
func (r *Runtime) persistBlocks(ctx context.Context, blocks []providers.Block) error {
	for _, b := range blocks {
		var err error
		switch b.Type {
		case providers.BlockText:
			_, err = r.cfg.Messages.Append(ctx, r.cfg.AgentUUID, store.MsgAssistant, b.Text, "")
		case providers.BlockThinking:
			data, _ := json.Marshal(thinkingData{Signature: b.Signature})
			_, err = r.cfg.Messages.Append(ctx, r.cfg.AgentUUID, store.MsgThinking, b.Text, string(data))
		case providers.BlockRedactedThinking:
			data, _ := json.Marshal(thinkingData{Redacted: true, RedactedData: b.RedactedData})
			_, err = r.cfg.Messages.Append(ctx, r.cfg.AgentUUID, store.MsgThinking, "", string(data))
		case providers.BlockToolUse:
			_, err = r.cfg.Messages.Append(ctx, r.cfg.AgentUUID, store.MsgToolCall, b.ToolName, toolCallJSON(b))
		}
		if err != nil {
			return id.Wrap(id.KindDBConnect, err, "persist %s block", b.Type)
		}
	}
	return nil
}

func toolCallJSON(b providers.Block) string {
	data, _ := json.Marshal(toolCallData{ID: b.ToolUseID, Name: b.ToolName, ArgumentsJSON: b.ToolInput})
	return string(data)
}
