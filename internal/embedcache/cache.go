// Package embedcache content-addresses embedding vectors in Redis so
// repeated text never pays for a provider round trip twice.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const TTL = 24 * time.Hour

// Cache wraps a Redis client. A down or unreachable Redis degrades to
// cache misses rather than failing the caller — embeddings always work,
// just without memoization.
type Cache struct {
	client *redis.Client
	log    *zap.Logger
}

func New(client *redis.Client, log *zap.Logger) *Cache {
	return &Cache{client: client, log: log}
}

func key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embed:%s:%s", model, hex.EncodeToString(sum[:]))
}

// Get returns vectors aligned with texts; an entry is nil where there was
// no cache hit or the cache was unavailable.
func (c *Cache) Get(ctx context.Context, model string, texts []string) []([]float32) {
	out := make([][]float32, len(texts))
	if c.client == nil || len(texts) == 0 {
		return out
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = key(model, t)
	}

	raw, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("embedding cache unavailable, degrading to direct provider calls", zap.Error(err))
		return out
	}
	for i, v := range raw {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(s), &vec); err == nil {
			out[i] = vec
		}
	}
	return out
}

// Set writes texts/vectors back to the cache with a fixed TTL, pipelined
// as a single round trip. Best-effort: write failures are logged, not
// surfaced, since the cache is never authoritative for correctness.
func (c *Cache) Set(ctx context.Context, model string, texts []string, vectors [][]float32) {
	if c.client == nil || len(texts) == 0 {
		return
	}
	pipe := c.client.Pipeline()
	for i, t := range texts {
		body, err := json.Marshal(vectors[i])
		if err != nil {
			continue
		}
		pipe.SetEx(ctx, key(model, t), body, TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("failed to populate embedding cache", zap.Error(err))
	}
}
