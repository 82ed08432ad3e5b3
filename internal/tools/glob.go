package tools

import (
	"path/filepath"
	"sort"
	"strings"
)

// Glob lists paths matching pattern, rooted at path if non-empty, otherwise
// the current directory. Matches are returned sorted and newline-joined.
func Glob(pattern, path string) string {
	fullPattern := pattern
	if path != "" {
		fullPattern = filepath.Join(path, pattern)
	}

	matches, err := filepath.Glob(fullPattern)
	if err != nil {
		return BuildError("Invalid glob pattern")
	}
	sort.Strings(matches)

	return BuildSuccess(map[string]any{
		"output": strings.Join(matches, "\n"),
		"count":  len(matches),
	})
}
