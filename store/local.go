package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Local is a Storage over an afero filesystem rooted at a base directory.
// The afero indirection keeps orchestrator tests on an in-memory fs.
type Local struct {
	fs afero.Fs
}

var _ Storage = (*Local)(nil)

// NewLocal returns a Storage over the OS filesystem rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}
}

// NewMem returns a Storage over an empty in-memory filesystem.
func NewMem() *Local {
	return &Local{fs: afero.NewMemMapFs()}
}

// NewLocalFs returns a Storage over a caller-supplied afero filesystem.
func NewLocalFs(fsys afero.Fs) *Local {
	return &Local{fs: fsys}
}

// LoadText implements Storage.
func (l *Local) LoadText(_ context.Context, path string) ([]byte, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// SaveText implements Storage. Parent directories are created as needed.
func (l *Local) SaveText(_ context.Context, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := l.fs.MkdirAll(dir, fs.FileMode(0o755)); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(l.fs, path, data, fs.FileMode(0o644)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Exists implements Storage.
func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	ok, err := afero.Exists(l.fs, path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return ok, nil
}
