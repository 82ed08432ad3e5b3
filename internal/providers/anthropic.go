package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/ikigai/internal/id"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	anthropicAPIBase      = "https://api.anthropic.com/v1"
	anthropicAPIVersion   = "2023-06-01"
	defaultMaxTokens      = 4096
)

// AnthropicProvider implements Provider against the Anthropic Messages API
// over net/http, with hand-rolled SSE parsing for streaming (spec §4.3).
type AnthropicProvider struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	retryConfig  RetryConfig
	limiter      *rate.Limiter
}

// defaultRequestsPerSecond bounds outbound request rate against Anthropic's
// per-account limits; generous enough for single-agent interactive use.
const defaultRequestsPerSecond = 4

type AnthropicOption func(*AnthropicProvider)

func WithAnthropicModel(model string) AnthropicOption {
	return func(p *AnthropicProvider) { p.defaultModel = model }
}

func WithAnthropicBaseURL(baseURL string) AnthropicOption {
	return func(p *AnthropicProvider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithAnthropicRequestsPerSecond overrides the outbound request rate limit.
func WithAnthropicRequestsPerSecond(rps float64) AnthropicOption {
	return func(p *AnthropicProvider) { p.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

func NewAnthropicProvider(apiKey string, opts ...AnthropicOption) *AnthropicProvider {
	p := &AnthropicProvider{
		apiKey:       apiKey,
		baseURL:      anthropicAPIBase,
		defaultModel: defaultAnthropicModel,
		client:       &http.Client{Timeout: 120 * time.Second},
		retryConfig:  DefaultRetryConfig(),
		limiter:      rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *AnthropicProvider) Name() string         { return "anthropic" }
func (p *AnthropicProvider) DefaultModel() string { return p.defaultModel }

func (p *AnthropicProvider) SupportsThinking(model string) bool {
	return anthropicSupportsThinking(model)
}

// Start performs one non-streaming request, retrying the connection phase
// per p.retryConfig.
func (p *AnthropicProvider) Start(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	body := p.buildRequestBody(model, req, false)

	return RetryDo(ctx, p.retryConfig, func() (*Response, error) {
		respBody, err := p.doRequest(ctx, body)
		if err != nil {
			return nil, err
		}
		defer respBody.Close()

		var resp anthropicResponse
		if err := json.NewDecoder(respBody).Decode(&resp); err != nil {
			return nil, id.Wrap(id.KindParse, err, "anthropic: decode response")
		}
		return parseResponse(&resp), nil
	})
}

// StartStream performs one streaming request and returns a channel of
// parsed events. The connection phase is retried; once the stream opens,
// no retry occurs (spec §4.2).
func (p *AnthropicProvider) StartStream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	body := p.buildRequestBody(model, req, true)

	respBody, err := RetryDo(ctx, p.retryConfig, func() (io.ReadCloser, error) {
		return p.doRequest(ctx, body)
	})
	if err != nil {
		return nil, err
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer respBody.Close()
		runSSELoop(ctx, respBody, events)
	}()
	return events, nil
}

func (p *AnthropicProvider) doRequest(ctx context.Context, body map[string]any) (io.ReadCloser, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, id.Wrap(id.KindRateLimit, err, "anthropic: rate limiter")
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, id.Wrap(id.KindParse, err, "anthropic: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(data))
	if err != nil {
		return nil, id.Wrap(id.KindIO, err, "anthropic: build request")
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, id.Wrap(id.KindIO, err, "anthropic: request failed")
	}

	if resp.StatusCode != http.StatusOK {
		respBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &HTTPError{
			Status:     resp.StatusCode,
			Body:       ParseHTTPErrorMessage(resp.StatusCode, respBytes),
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return resp.Body, nil
}

// --- request serialisation (spec §4.3) ---

func (p *AnthropicProvider) buildRequestBody(model string, req Request, stream bool) map[string]any {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := map[string]any{
		"model":      model,
		"max_tokens": maxTokens,
		"messages":   serialiseMessages(req.Messages),
	}
	if stream {
		body["stream"] = true
	}
	if req.SystemPrompt != "" {
		body["system"] = req.SystemPrompt
	}

	if req.ThinkingLevel != ThinkingNone && anthropicSupportsThinking(model) {
		budget := anthropicThinkingBudget(model, req.ThinkingLevel)
		body["thinking"] = map[string]any{
			"type":          "enabled",
			"budget_tokens": budget,
		}
		if maxTokens < budget+4096 {
			body["max_tokens"] = budget + 8192
		}
	}

	if len(req.Tools) > 0 {
		tools := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, map[string]any{
				"name":         t.Name,
				"description":  t.Description,
				"input_schema": t.Parameters,
			})
		}
		body["tools"] = tools

		switch req.ToolChoice {
		case ToolChoiceAuto:
			body["tool_choice"] = map[string]any{"type": "auto"}
		case ToolChoiceNone:
			body["tool_choice"] = map[string]any{"type": "none"}
		case ToolChoiceRequired:
			body["tool_choice"] = map[string]any{"type": "any"}
		}
	}

	return body
}

func serialiseMessages(msgs []Message) []map[string]any {
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		role := anthropicRole(m.Role)
		if len(m.Blocks) == 1 && m.Blocks[0].Type == BlockText {
			out = append(out, map[string]any{"role": role, "content": m.Blocks[0].Text})
			continue
		}

		content := make([]map[string]any, 0, len(m.Blocks))
		for _, b := range m.Blocks {
			content = append(content, serialiseBlock(b))
		}
		out = append(out, map[string]any{"role": role, "content": content})
	}
	return out
}

// anthropicRole maps the provider-agnostic role to Anthropic's two-role
// wire shape: tool results are carried as user-role tool_result blocks.
func anthropicRole(r Role) string {
	if r == RoleAssistant {
		return "assistant"
	}
	return "user"
}

func serialiseBlock(b Block) map[string]any {
	switch b.Type {
	case BlockText:
		return map[string]any{"type": "text", "text": b.Text}
	case BlockThinking:
		block := map[string]any{"type": "thinking", "thinking": b.Text}
		if b.Signature != "" {
			block["signature"] = b.Signature
		}
		return block
	case BlockRedactedThinking:
		return map[string]any{"type": "redacted_thinking", "data": b.RedactedData}
	case BlockToolUse:
		var input any = map[string]any{}
		if len(b.ToolInput) > 0 {
			_ = json.Unmarshal(b.ToolInput, &input)
		}
		return map[string]any{"type": "tool_use", "id": b.ToolUseID, "name": b.ToolName, "input": input}
	case BlockToolResult:
		return map[string]any{
			"type":        "tool_result",
			"tool_use_id": b.ToolUseID,
			"content":     b.ToolResult,
			"is_error":    b.ToolIsError,
		}
	default:
		return map[string]any{"type": "text", "text": ""}
	}
}

// --- non-streaming response parsing ---

type anthropicResponse struct {
	Model      string                  `json:"model"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Signature string          `json:"signature,omitempty"`
	Data      string          `json:"data,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func parseResponse(resp *anthropicResponse) *Response {
	blocks := make([]Block, 0, len(resp.Content))
	for _, b := range resp.Content {
		blocks = append(blocks, blockFromWire(b))
	}

	return &Response{
		Model:        resp.Model,
		Blocks:       blocks,
		FinishReason: mapFinishReason(resp.StopReason),
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

func blockFromWire(b anthropicContentBlock) Block {
	switch b.Type {
	case "text":
		return Block{Type: BlockText, Text: b.Text}
	case "thinking":
		return Block{Type: BlockThinking, Text: b.Thinking, Signature: b.Signature}
	case "redacted_thinking":
		return Block{Type: BlockRedactedThinking, RedactedData: b.Data}
	case "tool_use":
		return Block{Type: BlockToolUse, ToolUseID: b.ID, ToolName: strings.TrimSpace(b.Name), ToolInput: b.Input}
	default:
		return Block{Type: BlockText}
	}
}

// mapFinishReason implements the spec §4.3 finish-reason table.
func mapFinishReason(stopReason string) FinishReason {
	switch stopReason {
	case "end_turn":
		return FinishStop
	case "max_tokens":
		return FinishLength
	case "tool_use":
		return FinishToolUse
	case "stop_sequence":
		return FinishStop
	case "refusal":
		return FinishContentFilter
	default:
		return FinishUnknown
	}
}

// --- streaming SSE dispatch (spec §4.3) ---

type blockState struct {
	kind            string // "text", "thinking", "redacted_thinking", "tool_use", ""
	toolID          string
	toolName        string
	signature       string
	accumulatedArgs strings.Builder
}

func runSSELoop(ctx context.Context, body io.Reader, events chan<- StreamEvent) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentEvent string
	blocks := map[int]*blockState{}
	usage := Usage{}
	pendingFinish := FinishUnknown

	emit := func(ev StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			currentEvent = strings.TrimPrefix(line, "event: ")
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := []byte(strings.TrimPrefix(line, "data: "))

		switch currentEvent {
		case "ping":
			// ignored

		case "message_start":
			var ev struct {
				Message struct {
					Model string         `json:"model"`
					Usage anthropicUsage `json:"usage"`
				} `json:"message"`
			}
			if !decodeOrEmitParseError(data, &ev, emit) {
				continue
			}
			usage.InputTokens = ev.Message.Usage.InputTokens
			if !emit(StreamEvent{Kind: EventStart, Model: ev.Message.Model}) {
				return
			}

		case "content_block_start":
			var ev struct {
				Index        int                   `json:"index"`
				ContentBlock anthropicContentBlock `json:"content_block"`
			}
			if !decodeOrEmitParseError(data, &ev, emit) {
				continue
			}
			st := &blockState{kind: ev.ContentBlock.Type}
			blocks[ev.Index] = st

			if ev.ContentBlock.Type == "redacted_thinking" {
				st.accumulatedArgs.WriteString(ev.ContentBlock.Data)
				if !emit(StreamEvent{Kind: EventRedactedThinking, Index: ev.Index, RedactedData: ev.ContentBlock.Data}) {
					return
				}
			}
			if ev.ContentBlock.Type == "tool_use" {
				st.toolID = ev.ContentBlock.ID
				st.toolName = strings.TrimSpace(ev.ContentBlock.Name)
				if !emit(StreamEvent{Kind: EventToolCallStart, Index: ev.Index, ToolCallID: st.toolID, ToolCallName: st.toolName}) {
					return
				}
			}

		case "content_block_delta":
			var ev struct {
				Index int `json:"index"`
				Delta struct {
					Type        string `json:"type"`
					Text        string `json:"text,omitempty"`
					Thinking    string `json:"thinking,omitempty"`
					Signature   string `json:"signature,omitempty"`
					PartialJSON string `json:"partial_json,omitempty"`
				} `json:"delta"`
			}
			if !decodeOrEmitParseError(data, &ev, emit) {
				continue
			}

			switch ev.Delta.Type {
			case "text_delta":
				if !emit(StreamEvent{Kind: EventTextDelta, Index: ev.Index, Text: ev.Delta.Text}) {
					return
				}
			case "thinking_delta":
				if !emit(StreamEvent{Kind: EventThinkingDelta, Index: ev.Index, Text: ev.Delta.Thinking}) {
					return
				}
			case "signature_delta":
				if st := blocks[ev.Index]; st != nil {
					st.signature = ev.Delta.Signature
				}
				if !emit(StreamEvent{Kind: EventThinkingSignature, Index: ev.Index, Signature: ev.Delta.Signature}) {
					return
				}
			case "input_json_delta":
				if st := blocks[ev.Index]; st != nil {
					st.accumulatedArgs.WriteString(ev.Delta.PartialJSON)
				}
				if !emit(StreamEvent{Kind: EventToolCallDelta, Index: ev.Index, PartialJSON: ev.Delta.PartialJSON}) {
					return
				}
			}

		case "content_block_stop":
			var ev struct {
				Index int `json:"index"`
			}
			if !decodeOrEmitParseError(data, &ev, emit) {
				continue
			}
			if st := blocks[ev.Index]; st != nil && st.kind == "tool_use" {
				if !emit(StreamEvent{Kind: EventToolCallDone, Index: ev.Index}) {
					return
				}
			}

		case "message_delta":
			var ev struct {
				Delta struct {
					StopReason string `json:"stop_reason,omitempty"`
				} `json:"delta"`
				Usage struct {
					OutputTokens   int `json:"output_tokens"`
					ThinkingTokens int `json:"thinking_tokens"`
				} `json:"usage"`
			}
			if !decodeOrEmitParseError(data, &ev, emit) {
				continue
			}
			if ev.Delta.StopReason != "" {
				usage.OutputTokens = ev.Usage.OutputTokens
				usage.ThinkingTokens = ev.Usage.ThinkingTokens
				usage.TotalTokens = usage.InputTokens + usage.OutputTokens
				pendingFinish = mapFinishReason(ev.Delta.StopReason)
			}

		case "error":
			var ev struct {
				Error struct {
					Type    string `json:"type"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if !decodeOrEmitParseError(data, &ev, emit) {
				continue
			}
			msg := ev.Error.Message
			if msg == "" {
				msg = "Unknown error"
			}
			emit(StreamEvent{Kind: EventError, ErrorCategory: classifySSEErrorType(ev.Error.Type), ErrorMessage: msg})
			return

		case "message_stop":
			emit(StreamEvent{Kind: EventDone, FinishReason: pendingFinish, Usage: usage})
			return
		}
	}

	if err := scanner.Err(); err != nil {
		emit(StreamEvent{Kind: EventError, ErrorCategory: ErrUnknown, ErrorMessage: fmt.Sprintf("reading stream: %v", err)})
	}
}

// decodeOrEmitParseError unmarshals data into v; on failure it emits the
// spec's invalid-JSON or not-an-object StreamEvent and reports false so the
// caller continues to the next SSE line instead of aborting the stream.
func decodeOrEmitParseError(data []byte, v any, emit func(StreamEvent) bool) bool {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		emit(StreamEvent{Kind: EventError, ErrorCategory: ErrUnknown, ErrorMessage: "Invalid JSON in SSE event"})
		return false
	}
	if trimmed[0] != '{' {
		emit(StreamEvent{Kind: EventError, ErrorCategory: ErrUnknown, ErrorMessage: "SSE event data is not a JSON object"})
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		emit(StreamEvent{Kind: EventError, ErrorCategory: ErrUnknown, ErrorMessage: "Invalid JSON in SSE event"})
		return false
	}
	return true
}
