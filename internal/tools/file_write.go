package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileWrite creates or truncates path and writes content to it, reporting
// the written byte count and basename on success.
func FileWrite(path, content string) string {
	f, err := os.Create(path)
	if err != nil {
		return BuildError(fileCreateErrorMessage(path, err))
	}
	defer f.Close()

	n, err := f.WriteString(content)
	if err != nil || n != len(content) {
		return BuildError(fmt.Sprintf("Failed to write file: %s", path))
	}

	return BuildSuccess(map[string]any{
		"output": fmt.Sprintf("Wrote %d bytes to %s", n, filepath.Base(path)),
		"bytes":  n,
	})
}

func fileCreateErrorMessage(path string, err error) string {
	switch {
	case errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES):
		return fmt.Sprintf("Permission denied: %s", path)
	case errors.Is(err, syscall.ENOSPC):
		return fmt.Sprintf("No space left on device: %s", path)
	default:
		return fmt.Sprintf("Cannot open file: %s", path)
	}
}
