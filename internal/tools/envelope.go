// Package tools implements the built-in tool dispatcher: envelope
// construction, output truncation, tool-turn-limit injection, and the five
// built-in tools (spec §4.5).
package tools

import (
	"encoding/json"
	"fmt"
)

// BuildDispatchError builds the dispatcher-level bare error shape, used to
// distinguish dispatch failures (unknown tool, bad arguments JSON, missing
// required parameter) from tool-level failures.
func BuildDispatchError(message string) string {
	b, _ := json.Marshal(map[string]any{"error": message})
	return string(b)
}

// BuildError builds the tool-level failure envelope.
func BuildError(message string) string {
	b, _ := json.Marshal(map[string]any{"success": false, "error": message})
	return string(b)
}

// BuildSuccess builds the tool-level success envelope with data as the
// tool-specific payload.
func BuildSuccess(data map[string]any) string {
	b, _ := json.Marshal(map[string]any{"success": true, "data": data})
	return string(b)
}

// Truncate returns output unchanged if it's within maxSize bytes; otherwise
// the first maxSize bytes followed by a truncation notice naming how much
// was shown versus the true total (spec §4.5).
func Truncate(output string, maxSize int) string {
	if len(output) <= maxSize {
		return output
	}
	return output[:maxSize] + truncationNotice(maxSize, len(output))
}

func truncationNotice(shown, total int) string {
	return fmt.Sprintf("[Output truncated: showing first %d of %d bytes]", shown, total)
}

// IsError reports whether a dispatch result represents a failure: either
// the dispatcher-level bare {"error": ...} shape or a tool-level envelope
// with success=false. Malformed JSON is treated as an error.
func IsError(resultJSON string) bool {
	var obj map[string]any
	if err := json.Unmarshal([]byte(resultJSON), &obj); err != nil {
		return true
	}
	if _, ok := obj["error"]; ok {
		return true
	}
	if success, ok := obj["success"].(bool); ok {
		return !success
	}
	return false
}

// InjectLimitReached parses a tool-result JSON string and adds top-level
// limit_reached / limit_message fields, re-serialising. Malformed or
// non-object input returns "".
func InjectLimitReached(resultJSON string, budget int) string {
	var obj map[string]any
	if err := json.Unmarshal([]byte(resultJSON), &obj); err != nil {
		return ""
	}
	obj["limit_reached"] = true
	obj["limit_message"] = fmt.Sprintf("Tool call limit reached (%d). Stopping tool loop.", budget)

	b, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	return string(b)
}
