package fetch

import (
	"os"
	"path/filepath"
)

func createFile(destPath string) (*os.File, error) {
	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(destPath)
}
