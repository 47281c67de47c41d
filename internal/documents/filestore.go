package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore is a filesystem-backed content store: locators are paths
// relative to the base directory.
type FileStore struct {
	base string
}

func NewFileStore(base string) *FileStore {
	return &FileStore{base: base}
}

func (fs *FileStore) Read(_ context.Context, locator string) ([]byte, error) {
	clean := filepath.Clean(locator)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("locator %q escapes content root", locator)
	}

	content, err := os.ReadFile(filepath.Join(fs.base, clean))
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	return content, nil
}
