package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/logging"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"go.uber.org/zap"
)

const (
	CachePrefix      = "cached_data_"
	DefaultFreshness = 30 * time.Minute
)

// ResponseCache keeps the last good response per query key. Online reads
// honour the freshness window. Offline reads ignore it.
type ResponseCache struct {
	store        ports.KeyValueStore
	reachability ports.Reachability
	clock        ports.Clock
	freshness    time.Duration
	logger       *zap.Logger
}

func NewResponseCache(store ports.KeyValueStore, reachability ports.Reachability, clock ports.Clock, freshness time.Duration, logger *zap.Logger) *ResponseCache {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if freshness <= 0 {
		freshness = DefaultFreshness
	}

	return &ResponseCache{
		store:        store,
		reachability: reachability,
		clock:        clock,
		freshness:    freshness,
		logger:       logging.OrNop(logger),
	}
}

// Put overwrites key with value stamped now. Failures are logged only.
func (c *ResponseCache) Put(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("encode cache value failed", zap.String("key", key), zap.Error(err))
		return
	}

	entry, err := json.Marshal(domain.CacheEntry{Data: data, Timestamp: c.clock.Now().UnixMilli()})
	if err != nil {
		c.logger.Warn("encode cache entry failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.store.Set(ctx, CachePrefix+key, string(entry)); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Get returns the stored payload, or false on a miss.
func (c *ResponseCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, err := c.store.Get(ctx, CachePrefix+key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if len(entry.Data) == 0 || string(entry.Data) == "null" {
		return nil, false
	}

	if !c.online(ctx) {
		return entry.Data, true
	}
	if !entry.Fresh(c.clock.Now(), c.freshness) {
		return nil, false
	}

	return entry.Data, true
}

// Lookup decodes the cached payload for key into out.
func (c *ResponseCache) Lookup(ctx context.Context, key string, out any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("decode cached value failed", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

// ClearAll drops every cached response and the offline queue.
func (c *ResponseCache) ClearAll(ctx context.Context) error {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("%w: list cache keys: %w", domain.ErrPersistence, err)
	}

	remove := []string{OfflineQueueKey}
	for _, key := range keys {
		if strings.HasPrefix(key, CachePrefix) {
			remove = append(remove, key)
		}
	}

	if err := c.store.Remove(ctx, remove...); err != nil {
		return fmt.Errorf("%w: remove cache keys: %w", domain.ErrPersistence, err)
	}

	return nil
}

// online counts a failed reachability query as online, so the freshness
// window still applies.
func (c *ResponseCache) online(ctx context.Context) bool {
	if c.reachability == nil {
		return true
	}

	online, err := c.reachability.IsOnline(ctx)
	if err != nil {
		c.logger.Debug("reachability query failed, applying freshness window", zap.Error(err))
		return true
	}

	return online
}
