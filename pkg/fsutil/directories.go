// Package fsutil provides utility functions and constants for file system operations.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates a directory and all necessary parent directories with default permissions if they don't exist.
// It is safe to call concurrently for the same or overlapping paths: a directory created by
// another goroutine between the check and the create is not an error.
// Returns an error if the path exists but is not a directory.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, DirModeDefault); err != nil {
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// EnsureFileDir creates the parent directory of a file path if it doesn't exist.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}

// IsWithin reports whether target, after cleaning, lies inside root.
// Both paths must be of the same kind (both absolute or both relative).
func IsWithin(root, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
