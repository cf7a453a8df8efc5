package file

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
)

const (
	storeDirMode  = 0o700
	valueFileMode = 0o600
	valueSuffix   = ".val"
)

// Store writes one file per key under root. Keys are path-escaped so cache
// keys carrying slashes stay flat.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.KeyValueStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, storeDirMode); err != nil {
		return fmt.Errorf("create value directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(value), valueFileMode); err != nil {
		return fmt.Errorf("write value %q: %w", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("value %q: %w", key, domain.ErrNotFound)
		}
		return "", fmt.Errorf("read value %q: %w", key, err)
	}

	return string(data), nil
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range keys {
		path, err := s.pathForKey(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		err = os.Remove(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("delete value %q: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list value directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, valueSuffix) {
			continue
		}

		key, err := url.PathUnescape(strings.TrimSuffix(name, valueSuffix))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys, nil
}

func (s *Store) pathForKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("value key is empty")
	}
	if trimmed == "." || trimmed == ".." {
		return "", fmt.Errorf("invalid value key %q", key)
	}

	name := url.PathEscape(key) + valueSuffix
	if filepath.Base(name) != name {
		return "", fmt.Errorf("invalid value key %q", key)
	}

	return filepath.Join(s.root, name), nil
}
