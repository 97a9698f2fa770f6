// Package cache provides a short-lived redis cache for ranked search
// results. Cache failures are never fatal: errors are logged and treated as
// misses so the search path always works without redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopmate/backend/models"
)

const keyPrefix = "search_cache:"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// New builds a Cache. A nil client disables caching entirely.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
	}
}

// Key derives a stable cache key from the normalized query and limit.
func Key(query string, limit int) string {
	norm := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(norm))
	return keyPrefix + hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(limit)
}

// Get returns cached results for the key, or (nil, false) on miss or error.
func (c *Cache) Get(ctx context.Context, key string) ([]models.ProductRecord, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Printf("get %s: %v", key, err)
		}
		return nil, false
	}
	var out []models.ProductRecord
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		c.logger.Printf("decode %s: %v", key, err)
		return nil, false
	}
	return out, true
}

// Put stores results under the key for the configured TTL.
func (c *Cache) Put(ctx context.Context, key string, records []models.ProductRecord) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Printf("encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Printf("set %s: %v", key, err)
	}
}
