package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnthropicThinkingBudget_DefaultRange(t *testing.T) {
	assert.Equal(t, 1024, anthropicThinkingBudget("claude-3-opus", ThinkingNone))
	assert.Equal(t, 1024+(32000-1024)/3, anthropicThinkingBudget("claude-3-opus", ThinkingLow))
	assert.Equal(t, 1024+2*(32000-1024)/3, anthropicThinkingBudget("claude-3-opus", ThinkingMed))
	assert.Equal(t, 32000, anthropicThinkingBudget("claude-3-opus", ThinkingHigh))
}

func TestAnthropicThinkingBudget_Sonnet45Range(t *testing.T) {
	assert.Equal(t, 1024, anthropicThinkingBudget("claude-sonnet-4-5-20250929", ThinkingNone))
	assert.Equal(t, 64000, anthropicThinkingBudget("claude-sonnet-4-5-20250929", ThinkingHigh))
}

func TestAnthropicThinkingBudget_Haiku45Range(t *testing.T) {
	assert.Equal(t, 32000, anthropicThinkingBudget("claude-haiku-4-5-20251001", ThinkingHigh))
}

func TestAnthropicThinkingBudget_NonClaudeUnsupported(t *testing.T) {
	assert.Equal(t, -1, anthropicThinkingBudget("gpt-4", ThinkingHigh))
}

func TestValidateThinking(t *testing.T) {
	assert.NoError(t, validateThinking("gpt-4", ThinkingNone))
	assert.NoError(t, validateThinking("claude-3-opus", ThinkingHigh))
	assert.Error(t, validateThinking("gpt-4", ThinkingHigh))
}

func TestMapFinishReason(t *testing.T) {
	cases := map[string]FinishReason{
		"end_turn":      FinishStop,
		"max_tokens":    FinishLength,
		"tool_use":      FinishToolUse,
		"stop_sequence": FinishStop,
		"refusal":       FinishContentFilter,
		"":              FinishUnknown,
		"bogus":         FinishUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, mapFinishReason(in), "stop_reason=%q", in)
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	cases := map[int]ErrorCategory{
		400: ErrInvalidArg,
		401: ErrAuth,
		403: ErrAuth,
		404: ErrNotFound,
		429: ErrRateLimit,
		500: ErrServer,
		502: ErrServer,
		503: ErrServer,
		529: ErrServer,
		418: ErrUnknown,
	}
	for status, want := range cases {
		assert.Equal(t, want, ClassifyHTTPStatus(status))
	}
}

func TestClassifySSEErrorType(t *testing.T) {
	assert.Equal(t, ErrAuth, classifySSEErrorType("authentication_error"))
	assert.Equal(t, ErrRateLimit, classifySSEErrorType("rate_limit_error"))
	assert.Equal(t, ErrServer, classifySSEErrorType("overloaded_error"))
	assert.Equal(t, ErrInvalidArg, classifySSEErrorType("invalid_request_error"))
	assert.Equal(t, ErrUnknown, classifySSEErrorType("something_else"))
}
