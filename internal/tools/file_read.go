package tools

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// FileRead reads the full contents of path, translating open errors into
// the same errno-differentiated messages as the reference tool.
func FileRead(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return BuildError(fileOpenErrorMessage(path, err))
	}
	return BuildSuccess(map[string]any{"output": string(data)})
}

func fileOpenErrorMessage(path string, err error) string {
	switch {
	case errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOENT):
		return fmt.Sprintf("File not found: %s", path)
	case errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES):
		return fmt.Sprintf("Permission denied: %s", path)
	default:
		return fmt.Sprintf("Cannot open file: %s", path)
	}
}
