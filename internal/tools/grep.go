package tools

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Grep searches files matched by a glob filter (default "*") under path
// (default ".") for lines matching the given regular expression.
func Grep(pattern, globFilter, path string) string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return BuildError(fmt.Sprintf("Invalid pattern: %s", err))
	}

	searchPath := path
	if searchPath == "" {
		searchPath = "."
	}
	filter := globFilter
	if filter == "" {
		filter = "*"
	}
	fullGlobPattern := filepath.Join(searchPath, filter)

	matches, err := filepath.Glob(fullGlobPattern)
	if err != nil {
		matches = nil
	}

	var output strings.Builder
	count := 0
	for _, filename := range matches {
		info, err := os.Stat(filename)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		searchFile(filename, re, &output, &count)
	}

	return BuildSuccess(map[string]any{
		"output": output.String(),
		"count":  count,
	})
}

func searchFile(filename string, re *regexp.Regexp, output *strings.Builder, count *int) {
	f, err := os.Open(filename)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if re.MatchString(line) {
			if *count > 0 {
				output.WriteString("\n")
			}
			output.WriteString(fmt.Sprintf("%s:%d: %s", filename, lineNum, line))
			*count++
		}
	}
}
