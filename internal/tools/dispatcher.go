package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nextlevelbuilder/ikigai/internal/providers"
)

// Dispatch routes a tool call by name to its implementation, validating
// arguments first. The returned string is always a complete JSON envelope —
// either the dispatcher-level bare error shape or a tool-level envelope —
// never a Go error, since tool failures are data the model reads, not
// control-flow failures (spec §4.5).
func Dispatch(ctx context.Context, name, argumentsJSON string) string {
	if name == "" {
		return BuildDispatchError("Unknown tool: ")
	}

	var args map[string]any
	if argumentsJSON != "" {
		if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
			return BuildDispatchError("Invalid JSON arguments")
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	schema, ok := registry[name]
	if !ok {
		return BuildDispatchError(fmt.Sprintf("Unknown tool: %s", name))
	}

	if missing := schema.missingRequiredParam(args); missing != "" {
		return BuildDispatchError(fmt.Sprintf("Missing required parameter: %s", missing))
	}
	if err := schema.validate(args); err != nil {
		return BuildDispatchError(fmt.Sprintf("Invalid arguments: %v", err))
	}

	switch name {
	case "glob":
		pattern, _ := args["pattern"].(string)
		path, _ := args["path"].(string)
		return Glob(pattern, path)
	case "file_read":
		path, _ := args["path"].(string)
		return FileRead(path)
	case "grep":
		pattern, _ := args["pattern"].(string)
		globFilter, _ := args["glob"].(string)
		path, _ := args["path"].(string)
		return Grep(pattern, globFilter, path)
	case "file_write":
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		return FileWrite(path, content)
	case "bash":
		command, _ := args["command"].(string)
		return Bash(ctx, command)
	default:
		return BuildDispatchError(fmt.Sprintf("Unknown tool: %s", name))
	}
}

var registry = map[string]*toolSchema{
	"glob": compileToolSchema("glob", map[string]any{
		"type":       "object",
		"properties": map[string]any{"pattern": map[string]any{"type": "string"}, "path": map[string]any{"type": "string"}},
		"required":   []any{"pattern"},
	}),
	"file_read": compileToolSchema("file_read", map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
		"required":   []any{"path"},
	}),
	"grep": compileToolSchema("grep", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{"type": "string"},
			"glob":    map[string]any{"type": "string"},
			"path":    map[string]any{"type": "string"},
		},
		"required": []any{"pattern"},
	}),
	"file_write": compileToolSchema("file_write", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string"},
			"content": map[string]any{"type": "string"},
		},
		"required": []any{"path", "content"},
	}),
	"bash": compileToolSchema("bash", map[string]any{
		"type":       "object",
		"properties": map[string]any{"command": map[string]any{"type": "string"}},
		"required":   []any{"command"},
	}),
}

// Definitions returns the tool definitions to advertise to the provider,
// in the order the dispatcher's table checks them.
func Definitions() []providers.ToolDefinition {
	return []providers.ToolDefinition{
		{Name: "glob", Description: "List files matching a glob pattern.", Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"pattern": map[string]any{"type": "string"}, "path": map[string]any{"type": "string"}},
			"required":   []any{"pattern"},
		}},
		{Name: "file_read", Description: "Read the full contents of a file.", Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
			"required":   []any{"path"},
		}},
		{Name: "grep", Description: "Search files for lines matching a regular expression.", Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string"},
				"glob":    map[string]any{"type": "string"},
				"path":    map[string]any{"type": "string"},
			},
			"required": []any{"pattern"},
		}},
		{Name: "file_write", Description: "Create or overwrite a file with the given content.", Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
			},
			"required": []any{"path", "content"},
		}},
		{Name: "bash", Description: "Run a shell command and capture its output.", Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"command": map[string]any{"type": "string"}},
			"required":   []any{"command"},
		}},
	}
}
