package operations

import (
	"fmt"
	"os"
)

func EnsureDirectoryExist(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dirPath, err)
	}
	return nil
}

// RemoveFile deletes a temporary file, ignoring errors; used for cleanup of
// decompressed restore sources.
func RemoveFile(path string) {
	_ = os.Remove(path)
}
