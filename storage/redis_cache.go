// Copyright 2026 BlobPortal
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"blobportal/platform/shared/logger"
)

const (
	redisKeyContainers  = "blobportal:containers"
	redisKeyPropsFmt    = "blobportal:props:%s"
	redisKeyBlobsFmt    = "blobportal:blobs:%s:%s"
	redisKeyBlobsPrefix = "blobportal:blobs:%s:*"
)

// RedisListingCache is a ListingCache backed by Redis, for sharing the
// time-boxed listing cache across console replicas. All failures degrade to a
// cache miss; the backend listing call is the fallback, never an error.
type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger

	hits      int64
	misses    int64
	evictions int64
}

// NewRedisListingCache connects to Redis at redisURL
// (redis://host:port or redis://host:port/db) and verifies the connection.
func NewRedisListingCache(redisURL string, ttl time.Duration) (*RedisListingCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisListingCache{
		client: client,
		ttl:    ttl,
		log:    logger.New("storage-redis-cache"),
	}, nil
}

// Close releases the Redis connection pool.
func (c *RedisListingCache) Close() error {
	return c.client.Close()
}

func (c *RedisListingCache) GetContainers() ([]ContainerRecord, bool) {
	var records []ContainerRecord
	if !c.get(redisKeyContainers, &records) {
		return nil, false
	}
	return records, true
}

func (c *RedisListingCache) SetContainers(records []ContainerRecord) {
	c.set(redisKeyContainers, records)
}

func (c *RedisListingCache) GetContainerProps(containerName string) (ContainerRecord, bool) {
	var record ContainerRecord
	if !c.get(fmt.Sprintf(redisKeyPropsFmt, containerName), &record) {
		return ContainerRecord{}, false
	}
	return record, true
}

func (c *RedisListingCache) SetContainerProps(record ContainerRecord) {
	c.set(fmt.Sprintf(redisKeyPropsFmt, record.Name), record)
}

func (c *RedisListingCache) GetBlobs(containerName, prefix string) ([]BlobRecord, bool) {
	var blobs []BlobRecord
	if !c.get(fmt.Sprintf(redisKeyBlobsFmt, containerName, prefix), &blobs) {
		return nil, false
	}
	return blobs, true
}

func (c *RedisListingCache) SetBlobs(containerName, prefix string, blobs []BlobRecord) {
	c.set(fmt.Sprintf(redisKeyBlobsFmt, containerName, prefix), blobs)
}

func (c *RedisListingCache) InvalidateContainer(containerName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	keys := []string{
		redisKeyContainers,
		fmt.Sprintf(redisKeyPropsFmt, containerName),
	}

	// Blob listing keys are per-prefix; collect them with SCAN.
	match := fmt.Sprintf(redisKeyBlobsPrefix, containerName)
	iter := c.client.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("", "redis scan failed during invalidation", map[string]interface{}{
			"container": containerName,
			"error":     err.Error(),
		})
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("", "redis delete failed during invalidation", map[string]interface{}{
			"container": containerName,
			"error":     err.Error(),
		})
		return
	}
	atomic.AddInt64(&c.evictions, 1)
}

func (c *RedisListingCache) InvalidateAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	keys := make([]string, 0, 64)
	iter := c.client.Scan(ctx, 0, "blobportal:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("", "redis delete failed during full invalidation", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	atomic.AddInt64(&c.evictions, 1)
}

// Stats counts live entries with a SCAN; a scan failure degrades to a partial
// count, matching the miss-on-failure posture of the read path.
func (c *RedisListingCache) Stats() CacheStats {
	stats := CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	iter := c.client.Scan(ctx, 0, "blobportal:*", 100).Iterator()
	for iter.Next(ctx) {
		stats.Entries++
	}
	return stats
}

func (c *RedisListingCache) get(key string, out interface{}) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("", "redis get failed, treating as miss", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		atomic.AddInt64(&c.misses, 1)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		atomic.AddInt64(&c.misses, 1)
		return false
	}
	atomic.AddInt64(&c.hits, 1)
	return true
}

func (c *RedisListingCache) set(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("", "redis set failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Verify RedisListingCache implements ListingCache.
var _ ListingCache = (*RedisListingCache)(nil)
