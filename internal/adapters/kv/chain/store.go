package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
)

// Store reads and writes the primary backend and falls back to the secondary
// one when the primary fails. Missing keys are not failures.
//
// A key whose last write or removal only reached the fallback is diverted:
// reads answer from the fallback (or report the removal) until the primary
// accepts a write for that key again.
type Store struct {
	primary  ports.KeyValueStore
	fallback ports.KeyValueStore

	mu sync.Mutex
	// diverted maps a key to whether it was removed.
	diverted map[string]bool
}

var _ ports.KeyValueStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary key-value store is nil")
	errNilFallbackStore = errors.New("fallback key-value store is nil")
)

func NewStore(primary ports.KeyValueStore, fallback ports.KeyValueStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.KeyValueStore, fallback ports.KeyValueStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback, diverted: map[string]bool{}}, nil
}

func (s *Store) Set(ctx context.Context, key string, value string) error {
	err := s.primary.Set(ctx, key, value)
	if err == nil {
		if s.restore(key) {
			_ = s.fallback.Remove(ctx, key)
		}
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Set(ctx, key, value)
	if fallbackErr == nil {
		s.divert(false, key)
		return nil
	}

	return fmt.Errorf("primary backend set failed: %w; fallback backend set failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if removed, ok := s.divertedState(key); ok {
		if removed {
			return "", fmt.Errorf("chain key %q: %w", key, domain.ErrNotFound)
		}
		return s.fallback.Get(ctx, key)
	}

	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}
	if errors.Is(err, domain.ErrNotFound) && errors.Is(fallbackErr, domain.ErrNotFound) {
		return "", err
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Remove clears the key from both backends so a stale fallback copy never
// resurfaces. When only the fallback succeeds the keys stay masked as removed.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	err := s.primary.Remove(ctx, keys...)
	if err != nil && shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Remove(ctx, keys...)
	switch {
	case err == nil && fallbackErr == nil:
		s.restore(keys...)
		return nil
	case err == nil:
		return fmt.Errorf("fallback backend remove failed: %w", fallbackErr)
	case fallbackErr == nil:
		s.divert(true, keys...)
		return nil
	}

	return fmt.Errorf("primary backend remove failed: %w; fallback backend remove failed: %w", err, fallbackErr)
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	primaryKeys, err := s.primary.Keys(ctx)
	if err != nil && shouldSkipFallback(err) {
		return nil, err
	}

	fallbackKeys, fallbackErr := s.fallback.Keys(ctx)
	if err != nil && fallbackErr != nil {
		return nil, fmt.Errorf("primary backend keys failed: %w; fallback backend keys failed: %w", err, fallbackErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]struct{}{}
	keys := make([]string, 0, len(primaryKeys)+len(fallbackKeys))
	for _, key := range append(primaryKeys, fallbackKeys...) {
		if _, ok := seen[key]; ok {
			continue
		}
		if s.diverted[key] {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys, nil
}

func (s *Store) divert(removed bool, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		s.diverted[key] = removed
	}
}

// restore reports whether any of the keys was diverted.
func (s *Store) restore(keys ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, key := range keys {
		if _, ok := s.diverted[key]; ok {
			found = true
			delete(s.diverted, key)
		}
	}

	return found
}

func (s *Store) divertedState(key string) (removed bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, ok = s.diverted[key]
	return removed, ok
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
