// Package template resolves ${namespace.name} references inside prompt and
// config text against the agent, config, environment, and a small set of
// computed functions (spec §4.6).
package template

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AgentContext is the subset of agent state a template can reference as
// ${agent.*}.
type AgentContext struct {
	UUID      string
	Name      string
	Provider  string
	Model     string
	CreatedAt int64 // unix seconds
}

// ConfigContext is the subset of config a template can reference as
// ${config.*}.
type ConfigContext map[string]string

// Result is the outcome of processing one template string.
type Result struct {
	Processed  string
	Unresolved []string // literal "${ns.name}" text for each unresolved reference, in order
}

// Process resolves every ${ns.name} reference in text. Unresolved
// references (unknown namespace, unknown name, nil context) are left in
// place verbatim and recorded in Result.Unresolved. "$$" escapes to a
// literal "$".
func Process(text string, agent *AgentContext, config ConfigContext) Result {
	var out strings.Builder
	var unresolved []string

	for i := 0; i < len(text); {
		c := text[i]

		if c == '$' && i+1 < len(text) && text[i+1] == '$' {
			out.WriteByte('$')
			i += 2
			continue
		}

		if c == '$' && i+1 < len(text) && text[i+1] == '{' {
			end := strings.IndexByte(text[i+2:], '}')
			if end >= 0 {
				ref := text[i+2 : i+2+end]
				literal := text[i : i+2+end+1]
				if val, ok := resolve(ref, agent, config); ok {
					out.WriteString(val)
				} else {
					out.WriteString(literal)
					unresolved = append(unresolved, literal)
				}
				i += 2 + end + 1
				continue
			}
		}

		out.WriteByte(c)
		i++
	}

	return Result{Processed: out.String(), Unresolved: unresolved}
}

func resolve(ref string, agent *AgentContext, config ConfigContext) (string, bool) {
	ns, name, found := strings.Cut(ref, ".")
	if !found {
		return "", false
	}

	switch ns {
	case "agent":
		return resolveAgent(name, agent)
	case "config":
		if config == nil {
			return "", false
		}
		v, ok := config[name]
		return v, ok
	case "env":
		return os.LookupEnv(name)
	case "func":
		return resolveFunc(name)
	default:
		return "", false
	}
}

func resolveAgent(name string, agent *AgentContext) (string, bool) {
	if agent == nil {
		return "", false
	}
	switch name {
	case "uuid":
		return agent.UUID, true
	case "name":
		return agent.Name, true
	case "provider":
		return agent.Provider, true
	case "model":
		return agent.Model, true
	case "created_at":
		return fmt.Sprintf("%d", agent.CreatedAt), true
	default:
		return "", false
	}
}

func resolveFunc(name string) (string, bool) {
	switch name {
	case "now":
		return time.Now().UTC().Format(time.RFC3339), true
	case "cwd":
		wd, err := os.Getwd()
		if err != nil {
			return "", false
		}
		return wd, true
	case "hostname":
		h, err := os.Hostname()
		if err != nil {
			return "", false
		}
		return h, true
	case "random":
		return randomToken(), true
	default:
		return "", false
	}
}
