// Package prompt resolves the effective system prompt for an agent: pinned
// documents, then a data-dir prompt file, then a config fallback, then a
// compiled default (spec §4.7).
package prompt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nextlevelbuilder/ikigai/internal/doccache"
	"github.com/nextlevelbuilder/ikigai/internal/id"
	"github.com/nextlevelbuilder/ikigai/internal/template"
)

// DefaultSystemMessage is used when no pinned documents, prompt file, or
// config override resolves to anything.
const DefaultSystemMessage = "You are a helpful assistant."

// maxPromptFileBytes bounds the size of <data_dir>/system/prompt.md; an
// empty or oversized file is a hard error rather than being truncated
// silently into the prompt.
const maxPromptFileBytes = 1024

// Resolver computes the effective system prompt for one agent.
type Resolver struct {
	DataDir               string
	DocCache              *doccache.Cache
	OpenAISystemMessage   string // config fallback, "" if unset
}

// Resolve returns the effective system prompt and any warning lines
// (unresolved pinned-document template variables) to surface in the
// scrollback, applying template substitution to whichever tier wins.
func (r *Resolver) Resolve(pinnedPaths []string, agent *template.AgentContext, config template.ConfigContext) (prompt string, warnings []string, err error) {
	if len(pinnedPaths) > 0 && r.DocCache != nil {
		var assembled strings.Builder
		for _, path := range pinnedPaths {
			content, gerr := r.DocCache.Get(path)
			if gerr != nil {
				continue
			}
			assembled.WriteString(content)
		}
		if assembled.Len() > 0 {
			result := template.Process(assembled.String(), agent, config)
			for _, u := range result.Unresolved {
				warnings = append(warnings, "unresolved template variable: "+u)
			}
			return result.Processed, warnings, nil
		}
	}

	if r.DataDir != "" {
		promptPath := filepath.Join(r.DataDir, "system", "prompt.md")
		data, rerr := os.ReadFile(promptPath)
		if rerr == nil {
			if len(data) == 0 || len(data) > maxPromptFileBytes {
				return "", nil, id.New(id.KindInvalidArg, "prompt file %s must be non-empty and at most %d bytes", promptPath, maxPromptFileBytes)
			}
			return template.Process(string(data), agent, config).Processed, nil, nil
		}
	}

	if r.OpenAISystemMessage != "" {
		return template.Process(r.OpenAISystemMessage, agent, config).Processed, nil, nil
	}

	return template.Process(DefaultSystemMessage, agent, config).Processed, nil, nil
}
