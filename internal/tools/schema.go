package tools

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// toolSchema pairs a compiled JSON schema with the required-parameter list
// used to produce the dispatcher's exact "Missing required parameter: <name>"
// messages (the schema catches malformed argument shapes generally; the
// required list drives the specific message the spec commits to).
type toolSchema struct {
	compiled *jsonschema.Schema
	required []string
}

func compileToolSchema(name string, doc map[string]any) *toolSchema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name+".schema.json", doc); err != nil {
		panic(fmt.Sprintf("tools: invalid built-in schema for %s: %v", name, err))
	}
	compiled, err := c.Compile(name + ".schema.json")
	if err != nil {
		panic(fmt.Sprintf("tools: schema for %s failed to compile: %v", name, err))
	}

	var required []string
	if raw, ok := doc["required"].([]string); ok {
		required = raw
	} else if raw, ok := doc["required"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}

	return &toolSchema{compiled: compiled, required: required}
}

// missingRequiredParam returns the name of the first declared required
// parameter absent from args, or "" if every required parameter is present.
// It does not consult the compiled schema; validate does that.
func (s *toolSchema) missingRequiredParam(args map[string]any) string {
	for _, name := range s.required {
		if _, ok := args[name]; !ok {
			return name
		}
	}
	return ""
}

func (s *toolSchema) validate(args map[string]any) error {
	return s.compiled.Validate(args)
}
