package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local writes to the local filesystem, relative to root when set.
type Local struct {
	root string
}

// NewLocal creates a local store.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) fullPath(path string) string {
	if l.root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.root, path)
}

// CreateDir implements Store.
func (l *Local) CreateDir(_ context.Context, dir string) error {
	full := l.fullPath(dir)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.Mkdir(full, 0o750); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrExists, full)
		}
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// WriteFile implements Store.
func (l *Local) WriteFile(_ context.Context, path string, data []byte) error {
	if err := os.WriteFile(l.fullPath(path), data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// RemoveDir implements Store.
func (l *Local) RemoveDir(_ context.Context, dir string) error {
	full := l.fullPath(dir)
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read directory: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s", ErrNotEmpty, full)
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("failed to remove directory: %w", err)
	}
	return nil
}

// Location implements Store.
func (l *Local) Location(path string) string {
	return l.fullPath(path)
}
