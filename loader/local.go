package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalFile loads a document from the local filesystem.
type LocalFile struct {
	Path string
}

var _ Loader = (*LocalFile)(nil)

// NewLocalFile returns a loader for the file at path.
func NewLocalFile(path string) *LocalFile {
	return &LocalFile{Path: path}
}

// Load reads the file and returns its base name and contents.
func (l *LocalFile) Load(ctx context.Context) (string, []byte, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return "", nil, fmt.Errorf("loading %s: %w", l.Path, err)
	}
	return filepath.Base(l.Path), data, nil
}
