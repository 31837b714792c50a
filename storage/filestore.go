package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".kv"

// FileStore is a directory-backed KV. Each key is one file; keys are
// path-escaped so arbitrary key strings stay inside the directory. A quota
// of zero means unlimited.
type FileStore struct {
	dir   string
	quota int64
}

// NewFileStore opens (creating if needed) a store rooted at dir.
func NewFileStore(dir string, quota int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &FileStore{dir: dir, quota: quota}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileExt)
}

func (f *FileStore) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return string(data), true, nil
}

func (f *FileStore) Set(key, value string) error {
	if f.quota > 0 {
		used, err := f.usedExcluding(key)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > f.quota {
			return ErrQuotaExceeded
		}
	}
	if err := os.WriteFile(f.path(key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

func (f *FileStore) Remove(key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

func (f *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list keys: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (f *FileStore) usedExcluding(key string) (int64, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, fmt.Errorf("storage: scan dir: %w", err)
	}
	skip := url.PathEscape(key) + fileExt
	var used int64
	for _, e := range entries {
		if e.IsDir() || e.Name() == skip || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		used += info.Size()
	}
	return used, nil
}
