package providers

import (
	"strings"

	"github.com/nextlevelbuilder/ikigai/internal/id"
)

type anthropicBudget struct {
	modelPrefix string
	min, max    int
}

// thinkingBudgetTable holds model-specific overrides, checked longest-prefix
// first; unmatched Claude models fall back to defaultMinBudget/MaxBudget.
var thinkingBudgetTable = []anthropicBudget{
	{"claude-sonnet-4-5", 1024, 64000},
	{"claude-haiku-4-5", 1024, 32000},
}

const (
	defaultMinBudget = 1024
	defaultMaxBudget = 32000
)

// anthropicSupportsThinking reports whether model is a Claude model; only
// Claude models support Anthropic's extended thinking.
func anthropicSupportsThinking(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// anthropicThinkingBudget maps (model, level) to a token budget. Returns -1
// for non-Claude models.
func anthropicThinkingBudget(model string, level ThinkingLevel) int {
	if !anthropicSupportsThinking(model) {
		return -1
	}

	min, max := defaultMinBudget, defaultMaxBudget
	for _, b := range thinkingBudgetTable {
		if strings.HasPrefix(model, b.modelPrefix) {
			min, max = b.min, b.max
			break
		}
	}

	rng := max - min
	switch level {
	case ThinkingNone:
		return min
	case ThinkingLow:
		return min + rng/3
	case ThinkingMed:
		return min + (2*rng)/3
	case ThinkingHigh:
		return max
	default:
		return min
	}
}

// validateThinking succeeds unconditionally for Claude models and for
// ThinkingNone on any model; rejects non-None levels on non-Claude models.
func validateThinking(model string, level ThinkingLevel) error {
	if level == ThinkingNone {
		return nil
	}
	if !anthropicSupportsThinking(model) {
		return id.New(id.KindInvalidArg, "model %q does not support thinking (only Claude models support thinking)", model)
	}
	return nil
}
