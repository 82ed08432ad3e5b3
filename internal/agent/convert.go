package agent

import (
	"encoding/json"

	"github.com/nextlevelbuilder/ikigai/internal/providers"
	"github.com/nextlevelbuilder/ikigai/internal/store"
)

// thinkingData is the data_json payload for a 'thinking' message row.
type thinkingData struct {
	Signature    string `json:"signature,omitempty"`
	Redacted     bool   `json:"redacted,omitempty"`
	RedactedData string `json:"redacted_data,omitempty"`
}

// toolCallData is the data_json payload for a 'tool_call' message row.
type toolCallData struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ArgumentsJSON json.RawMessage `json:"arguments"`
}

// toolResultData is the data_json payload for a 'tool_result' message row.
type toolResultData struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// toProviderMessages reconstructs the provider-facing conversation from the
// persisted, already-filtered message log. Each stored row is one content
// block (spec §3); consecutive assistant-owned rows (thinking, assistant
// text, tool_call) between user/tool_result rows are folded into a single
// assistant-role Message, mirroring how they were produced by one provider
// response.
func toProviderMessages(msgs []*store.Message) []providers.Message {
	var out []providers.Message
	var assistant *providers.Message

	flush := func() {
		if assistant != nil {
			out = append(out, *assistant)
			assistant = nil
		}
	}

	for _, m := range msgs {
		switch m.Kind {
		case store.MsgUser:
			flush()
			out = append(out, providers.Message{
				Role:   providers.RoleUser,
				Blocks: []providers.Block{{Type: providers.BlockText, Text: m.Content}},
			})

		case store.MsgThinking:
			if assistant == nil {
				assistant = &providers.Message{Role: providers.RoleAssistant}
			}
			var d thinkingData
			_ = json.Unmarshal([]byte(m.DataJSON), &d)
			if d.Redacted {
				assistant.Blocks = append(assistant.Blocks, providers.Block{Type: providers.BlockRedactedThinking, RedactedData: d.RedactedData})
			} else {
				assistant.Blocks = append(assistant.Blocks, providers.Block{Type: providers.BlockThinking, Text: m.Content, Signature: d.Signature})
			}

		case store.MsgAssistant:
			if assistant == nil {
				assistant = &providers.Message{Role: providers.RoleAssistant}
			}
			assistant.Blocks = append(assistant.Blocks, providers.Block{Type: providers.BlockText, Text: m.Content})

		case store.MsgToolCall:
			if assistant == nil {
				assistant = &providers.Message{Role: providers.RoleAssistant}
			}
			var d toolCallData
			_ = json.Unmarshal([]byte(m.DataJSON), &d)
			assistant.Blocks = append(assistant.Blocks, providers.Block{
				Type:      providers.BlockToolUse,
				ToolUseID: d.ID,
				ToolName:  d.Name,
				ToolInput: d.ArgumentsJSON,
			})

		case store.MsgToolResult:
			flush()
			var d toolResultData
			_ = json.Unmarshal([]byte(m.DataJSON), &d)
			out = append(out, providers.Message{
				Role: providers.RoleTool,
				Blocks: []providers.Block{{
					Type:        providers.BlockToolResult,
					ToolUseID:   d.ToolCallID,
					ToolResult:  d.Content,
					ToolIsError: d.IsError,
				}},
			})
		}
	}
	flush()

	return out
}

// extractText concatenates every BlockText in a response's blocks, the
// assistant's final user-visible reply.
func extractText(blocks []providers.Block) string {
	var text string
	for _, b := range blocks {
		if b.Type == providers.BlockText {
			text += b.Text
		}
	}
	return text
}

// firstToolUse returns the first tool_use block in blocks, if any.
func firstToolUse(blocks []providers.Block) (providers.Block, bool) {
	for _, b := range blocks {
		if b.Type == providers.BlockToolUse {
			return b, true
		}
	}
	return providers.Block{}, false
}
