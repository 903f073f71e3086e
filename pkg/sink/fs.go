package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File writes documents under a local directory, creating the per-label
// subdirectories as needed.
type File struct {
	dir string
}

// NewFile creates a filesystem sink rooted at dir.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

// Name implements Sink.
func (f *File) Name() string {
	return "file:" + f.dir
}

// Put implements Sink.
func (f *File) Put(ctx context.Context, key string, data []byte) error {
	path := filepath.Join(f.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
