package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore stores chapter documents on the local filesystem.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a local filesystem chapter store.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Save writes atomically: temp file in the target directory, then rename.
func (s *LocalStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".chapters-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *LocalStore) Exists(ctx context.Context, key string) bool {
	path, err := s.path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// List walks the store directory. Temp files from interrupted saves are
// skipped. A missing directory lists as empty.
func (s *LocalStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.dir {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || isTempFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *LocalStore) Type() string { return "local" }

// Dir returns the store directory.
func (s *LocalStore) Dir() string { return s.dir }

// path resolves key inside the store directory, rejecting keys that escape it.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".chapters-") && strings.HasSuffix(name, ".tmp")
}
