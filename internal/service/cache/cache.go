// Package cache is a Redis-backed verdict cache. Keys are derived from the
// model version and the normalized input, so two inputs that normalize to
// the same canonical string share a verdict and a model upgrade naturally
// invalidates everything.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	"github.com/tokensift/token-screening-platform/pkg/config"
	pkgredis "github.com/tokensift/token-screening-platform/pkg/redis"
)

const keyPrefix = "verdict:"

type VerdictCache struct {
	client       *pkgredis.Client
	cfg          config.RedisConfig
	modelVersion string
	group        singleflight.Group
	logger       *slog.Logger
	hits         atomic.Int64
	misses       atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig, modelVersion string) *VerdictCache {
	return &VerdictCache{
		client:       client,
		cfg:          cfg,
		modelVersion: modelVersion,
		logger:       slog.Default().With("component", "verdict-cache"),
	}
}

func (c *VerdictCache) Get(ctx context.Context, text string) (nonsense.Result, bool) {
	key := c.buildKey(text)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nonsense.Result{}, false
	}
	var result nonsense.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nonsense.Result{}, false
	}
	c.hits.Add(1)
	return result, true
}

func (c *VerdictCache) Set(ctx context.Context, text string, result nonsense.Result) {
	key := c.buildKey(text)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached verdict for text, or computes and caches
// it. Concurrent lookups for the same key are collapsed into one
// computation. The bool reports whether the verdict came from the cache.
func (c *VerdictCache) GetOrCompute(
	ctx context.Context,
	text string,
	computeFn func() (nonsense.Result, error),
) (nonsense.Result, bool, error) {
	if result, ok := c.Get(ctx, text); ok {
		return result, true, nil
	}
	key := c.buildKey(text)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, text); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nonsense.Result{}, err
		}
		c.Set(ctx, text, result)
		return result, nil
	})
	if err != nil {
		return nonsense.Result{}, false, err
	}
	return val.(nonsense.Result), false, nil
}

// Invalidate removes every cached verdict.
func (c *VerdictCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating verdict cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *VerdictCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *VerdictCache) buildKey(text string) string {
	raw := fmt.Sprintf("%s:%s", c.modelVersion, nonsense.Normalize(text))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
