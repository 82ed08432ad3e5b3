package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectEvents(t *testing.T, sse string) []StreamEvent {
	t.Helper()
	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		runSSELoop(context.Background(), strings.NewReader(sse), events)
	}()

	var out []StreamEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestRunSSELoop_MinimalTextRun(t *testing.T) {
	sse := "" +
		"event: message_start\n" +
		`data: {"message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":10}}}` + "\n\n" +
		"event: content_block_start\n" +
		`data: {"index":0,"content_block":{"type":"text"}}` + "\n\n" +
		"event: content_block_delta\n" +
		`data: {"index":0,"delta":{"type":"text_delta","text":"hi"}}` + "\n\n" +
		"event: content_block_stop\n" +
		`data: {"index":0}` + "\n\n" +
		"event: message_delta\n" +
		`data: {"delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":5}}` + "\n\n" +
		"event: message_stop\n" +
		`data: {}` + "\n\n"

	events := collectEvents(t, sse)
	require.Len(t, events, 3, "content_block_start/stop on a text block and message_delta emit nothing")

	assert.Equal(t, EventStart, events[0].Kind)
	assert.Equal(t, "claude-sonnet-4-5", events[0].Model)

	assert.Equal(t, EventTextDelta, events[1].Kind)
	assert.Equal(t, "hi", events[1].Text)

	assert.Equal(t, EventDone, events[2].Kind)
	assert.Equal(t, FinishStop, events[2].FinishReason)
	assert.Equal(t, 10, events[2].Usage.InputTokens)
	assert.Equal(t, 5, events[2].Usage.OutputTokens)
	assert.Equal(t, 15, events[2].Usage.TotalTokens)
}

func TestRunSSELoop_ToolCallLifecycle(t *testing.T) {
	sse := "" +
		"event: content_block_start\n" +
		`data: {"index":0,"content_block":{"type":"tool_use","id":"tool_1","name":"bash"}}` + "\n\n" +
		"event: content_block_delta\n" +
		`data: {"index":0,"delta":{"type":"input_json_delta","partial_json":"{\"cmd\":"}}` + "\n\n" +
		"event: content_block_delta\n" +
		`data: {"index":0,"delta":{"type":"input_json_delta","partial_json":"\"ls\"}"}}` + "\n\n" +
		"event: content_block_stop\n" +
		`data: {"index":0}` + "\n\n" +
		"event: message_stop\n" +
		`data: {}` + "\n\n"

	events := collectEvents(t, sse)
	require.Len(t, events, 5)
	assert.Equal(t, EventToolCallStart, events[0].Kind)
	assert.Equal(t, "tool_1", events[0].ToolCallID)
	assert.Equal(t, "bash", events[0].ToolCallName)
	assert.Equal(t, EventToolCallDelta, events[1].Kind)
	assert.Equal(t, EventToolCallDelta, events[2].Kind)
	assert.Equal(t, EventToolCallDone, events[3].Kind)
	assert.Equal(t, EventDone, events[4].Kind)
}

func TestRunSSELoop_PingAndUnknownEventsIgnored(t *testing.T) {
	sse := "" +
		"event: ping\n" +
		`data: {}` + "\n\n" +
		"event: something_unexpected\n" +
		`data: {"foo":"bar"}` + "\n\n" +
		"event: message_stop\n" +
		`data: {}` + "\n\n"

	events := collectEvents(t, sse)
	require.Len(t, events, 1)
	assert.Equal(t, EventDone, events[0].Kind)
}

func TestRunSSELoop_InvalidJSONEmitsErrorAndContinues(t *testing.T) {
	sse := "" +
		"event: content_block_delta\n" +
		`data: not json` + "\n\n" +
		"event: message_stop\n" +
		`data: {}` + "\n\n"

	events := collectEvents(t, sse)
	require.Len(t, events, 2)
	assert.Equal(t, EventError, events[0].Kind)
	assert.Equal(t, "Invalid JSON in SSE event", events[0].ErrorMessage)
	assert.Equal(t, EventDone, events[1].Kind)
}

func TestRunSSELoop_ErrorEventStopsStream(t *testing.T) {
	sse := "" +
		"event: error\n" +
		`data: {"error":{"type":"rate_limit_error","message":"slow down"}}` + "\n\n" +
		"event: message_stop\n" +
		`data: {}` + "\n\n"

	events := collectEvents(t, sse)
	require.Len(t, events, 1, "message_stop must not be processed after a stream error")
	assert.Equal(t, EventError, events[0].Kind)
	assert.Equal(t, ErrRateLimit, events[0].ErrorCategory)
	assert.Equal(t, "slow down", events[0].ErrorMessage)
}

func TestRunSSELoop_ErrorEventDefaultsMessage(t *testing.T) {
	sse := "event: error\n" + `data: {"error":{"type":"unknown_type"}}` + "\n\n"

	events := collectEvents(t, sse)
	require.Len(t, events, 1)
	assert.Equal(t, "Unknown error", events[0].ErrorMessage)
	assert.Equal(t, ErrUnknown, events[0].ErrorCategory)
}
