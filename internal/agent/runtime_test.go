package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/ikigai/internal/prompt"
	"github.com/nextlevelbuilder/ikigai/internal/providers"
	"github.com/nextlevelbuilder/ikigai/internal/store"
)

// memStore is a minimal in-memory MessageStore+AgentStore for runtime tests.
type memStore struct {
	messages []*store.Message
	agents   map[string]*store.Agent
	nextID   int64
}

func newMemStore(uuid string) *memStore {
	return &memStore{
		agents: map[string]*store.Agent{
			uuid: {UUID: uuid, Status: store.AgentRunning},
		},
	}
}

func (s *memStore) Append(_ context.Context, agentUUID string, kind store.MessageKind, content, dataJSON string) (int64, error) {
	s.nextID++
	s.messages = append(s.messages, &store.Message{ID: s.nextID, AgentUUID: agentUUID, Kind: kind, Content: content, DataJSON: dataJSON})
	return s.nextID, nil
}

func (s *memStore) FindClear(_ context.Context, agentUUID string, maxID int64) (int64, error) {
	var found int64
	for _, m := range s.messages {
		if m.AgentUUID != agentUUID || m.Kind != store.MsgClear {
			continue
		}
		if maxID > 0 && m.ID > maxID {
			continue
		}
		found = m.ID
	}
	return found, nil
}

func (s *memStore) QueryRange(_ context.Context, r store.ReplayRange) ([]*store.Message, error) {
	var out []*store.Message
	for _, m := range s.messages {
		if m.AgentUUID != r.AgentUUID {
			continue
		}
		if m.ID <= r.StartID {
			continue
		}
		if r.EndID > 0 && m.ID > r.EndID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, uuid string) (*store.Agent, error) {
	a, ok := s.agents[uuid]
	if !ok {
		return nil, assert.AnError
	}
	return a, nil
}

// fakeProvider returns a scripted sequence of responses, one per call.
type fakeProvider struct {
	responses []*providers.Response
	calls     int
}

func (p *fakeProvider) Name() string                      { return "fake" }
func (p *fakeProvider) DefaultModel() string              { return "fake-model" }
func (p *fakeProvider) SupportsThinking(model string) bool { return false }

func (p *fakeProvider) Start(_ context.Context, _ providers.Request) (*providers.Response, error) {
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

// StartStream replays the next scripted response as the equivalent sequence
// of stream events, so Runtime.Turn (which drives the provider only through
// StartStream) exercises the same path it would against a real adapter.
func (p *fakeProvider) StartStream(_ context.Context, _ providers.Request) (<-chan providers.StreamEvent, error) {
	resp := p.responses[p.calls]
	p.calls++

	ch := make(chan providers.StreamEvent, 16)
	go func() {
		defer close(ch)
		ch <- providers.StreamEvent{Kind: providers.EventStart, Model: resp.Model}
		for i, b := range resp.Blocks {
			switch b.Type {
			case providers.BlockText:
				ch <- providers.StreamEvent{Kind: providers.EventTextDelta, Index: i, Text: b.Text}
			case providers.BlockThinking:
				ch <- providers.StreamEvent{Kind: providers.EventThinkingDelta, Index: i, Text: b.Text}
				if b.Signature != "" {
					ch <- providers.StreamEvent{Kind: providers.EventThinkingSignature, Index: i, Signature: b.Signature}
				}
			case providers.BlockRedactedThinking:
				ch <- providers.StreamEvent{Kind: providers.EventRedactedThinking, Index: i, RedactedData: b.RedactedData}
			case providers.BlockToolUse:
				ch <- providers.StreamEvent{Kind: providers.EventToolCallStart, Index: i, ToolCallID: b.ToolUseID, ToolCallName: b.ToolName}
				if len(b.ToolInput) > 0 {
					ch <- providers.StreamEvent{Kind: providers.EventToolCallDelta, Index: i, PartialJSON: string(b.ToolInput)}
				}
				ch <- providers.StreamEvent{Kind: providers.EventToolCallDone, Index: i}
			}
		}
		ch <- providers.StreamEvent{Kind: providers.EventDone, FinishReason: resp.FinishReason, Usage: resp.Usage}
	}()
	return ch, nil
}

func textResponse(text string) *providers.Response {
	return &providers.Response{
		Blocks:       []providers.Block{{Type: providers.BlockText, Text: text}},
		FinishReason: providers.FinishStop,
	}
}

func toolUseResponse(id, name, args string) *providers.Response {
	return &providers.Response{
		Blocks:       []providers.Block{{Type: providers.BlockToolUse, ToolUseID: id, ToolName: name, ToolInput: json.RawMessage(args)}},
		FinishReason: providers.FinishToolUse,
	}
}

func newTestRuntime(t *testing.T, fp *fakeProvider, maxToolTurns int) (*Runtime, *memStore) {
	t.Helper()
	const uuid = "agent-1"
	ms := newMemStore(uuid)
	rt := New(Config{
		AgentUUID:    uuid,
		Agents:       ms,
		Messages:     ms,
		Provider:     fp,
		Model:        "fake-model",
		MaxToolTurns: maxToolTurns,
		PromptResolver: &prompt.Resolver{},
		ConfigCtx: map[string]string{},
	})
	return rt, ms
}

func TestTurn_SimpleReplyEndsIdleWithoutToolCall(t *testing.T) {
	fp := &fakeProvider{responses: []*providers.Response{textResponse("hello there")}}
	rt, ms := newTestRuntime(t, fp, 20)

	result, err := rt.Turn(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", result.Content)
	assert.False(t, result.Interrupted)
	assert.Equal(t, StateIdle, rt.State())

	require.Len(t, ms.messages, 2)
	assert.Equal(t, store.MsgUser, ms.messages[0].Kind)
	assert.Equal(t, store.MsgAssistant, ms.messages[1].Kind)
}

func TestTurn_ToolCallThenReplyPersistsAllRows(t *testing.T) {
	fp := &fakeProvider{responses: []*providers.Response{
		toolUseResponse("call-1", "glob", `{"pattern":"*.go"}`),
		textResponse("done"),
	}}
	rt, ms := newTestRuntime(t, fp, 20)

	result, err := rt.Turn(context.Background(), "list files")
	require.NoError(t, err)
	assert.Equal(t, "done", result.Content)

	var kinds []store.MessageKind
	for _, m := range ms.messages {
		kinds = append(kinds, m.Kind)
	}
	assert.Equal(t, []store.MessageKind{
		store.MsgUser, store.MsgToolCall, store.MsgToolResult, store.MsgAssistant,
	}, kinds)
}

func TestTurn_ToolTurnLimitInjectsLimitReached(t *testing.T) {
	fp := &fakeProvider{responses: []*providers.Response{
		toolUseResponse("call-1", "glob", `{"pattern":"*.go"}`),
		textResponse("stopped"),
	}}
	rt, ms := newTestRuntime(t, fp, 1)

	_, err := rt.Turn(context.Background(), "list files")
	require.NoError(t, err)

	var resultRow *store.Message
	for _, m := range ms.messages {
		if m.Kind == store.MsgToolResult {
			resultRow = m
		}
	}
	require.NotNil(t, resultRow)

	var data toolResultData
	require.NoError(t, json.Unmarshal([]byte(resultRow.DataJSON), &data))

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(data.Content), &envelope))
	assert.Equal(t, true, envelope["limit_reached"])
}

func TestTurn_InterruptedContextAppendsInterruptedMarker(t *testing.T) {
	fp := &fakeProvider{responses: []*providers.Response{textResponse("unreachable")}}
	rt, ms := newTestRuntime(t, fp, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := rt.Turn(ctx, "hi")
	require.NoError(t, err)
	assert.True(t, result.Interrupted)
	assert.Equal(t, StateIdle, rt.State())

	require.Len(t, ms.messages, 2)
	assert.Equal(t, store.MsgInterrupted, ms.messages[1].Kind)
}
