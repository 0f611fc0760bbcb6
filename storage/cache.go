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
	"sync"
	"time"
)

// CacheEntry wraps a cached value with its expiration time.
type CacheEntry[T any] struct {
	Value     T
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (e *CacheEntry[T]) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// CacheStats tracks cache performance counters. Entries is the number of
// cached values at the time Stats was called, not a running counter.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int64 `json:"entries"`
}

// ListingCache is the backend for CachedAccessor's time-boxed memoization of
// read results. Implementations must be safe for concurrent use.
type ListingCache interface {
	GetContainers() ([]ContainerRecord, bool)
	SetContainers(records []ContainerRecord)
	GetContainerProps(containerName string) (ContainerRecord, bool)
	SetContainerProps(record ContainerRecord)
	GetBlobs(containerName, prefix string) ([]BlobRecord, bool)
	SetBlobs(containerName, prefix string, blobs []BlobRecord)

	// InvalidateContainer drops the blob listings and properties of one
	// container plus the account-wide container list.
	InvalidateContainer(containerName string)
	InvalidateAll()
	Stats() CacheStats
}

// MemoryListingCache is the default in-process ListingCache.
type MemoryListingCache struct {
	containers *CacheEntry[[]ContainerRecord]
	props      map[string]*CacheEntry[ContainerRecord]
	blobs      map[string]*CacheEntry[[]BlobRecord]
	ttl        time.Duration
	mu         sync.RWMutex
	stats      CacheStats
}

// NewMemoryListingCache creates an in-process cache with the given TTL.
func NewMemoryListingCache(ttl time.Duration) *MemoryListingCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &MemoryListingCache{
		props: make(map[string]*CacheEntry[ContainerRecord]),
		blobs: make(map[string]*CacheEntry[[]BlobRecord]),
		ttl:   ttl,
	}
}

// blobsKey composes the cache key for one container's prefix-scoped listing.
// "\x00" cannot appear in container names, so keys never collide.
func blobsKey(containerName, prefix string) string {
	return containerName + "\x00" + prefix
}

func (c *MemoryListingCache) GetContainers() ([]ContainerRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.containers == nil || c.containers.IsExpired() {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return c.containers.Value, true
}

func (c *MemoryListingCache) SetContainers(records []ContainerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.containers = &CacheEntry[[]ContainerRecord]{
		Value:     records,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

func (c *MemoryListingCache) GetContainerProps(containerName string) (ContainerRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.props[containerName]
	if !exists || entry.IsExpired() {
		c.stats.Misses++
		return ContainerRecord{}, false
	}
	c.stats.Hits++
	return entry.Value, true
}

func (c *MemoryListingCache) SetContainerProps(record ContainerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.props[record.Name] = &CacheEntry[ContainerRecord]{
		Value:     record,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

func (c *MemoryListingCache) GetBlobs(containerName, prefix string) ([]BlobRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.blobs[blobsKey(containerName, prefix)]
	if !exists || entry.IsExpired() {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return entry.Value, true
}

func (c *MemoryListingCache) SetBlobs(containerName, prefix string, blobs []BlobRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blobs[blobsKey(containerName, prefix)] = &CacheEntry[[]BlobRecord]{
		Value:     blobs,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

func (c *MemoryListingCache) InvalidateContainer(containerName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.containers = nil
	delete(c.props, containerName)

	keyPrefix := containerName + "\x00"
	for key := range c.blobs {
		if len(key) >= len(keyPrefix) && key[:len(keyPrefix)] == keyPrefix {
			delete(c.blobs, key)
		}
	}
	c.stats.Evictions++
}

func (c *MemoryListingCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.containers = nil
	c.props = make(map[string]*CacheEntry[ContainerRecord])
	c.blobs = make(map[string]*CacheEntry[[]BlobRecord])
	c.stats.Evictions++
}

// Cleanup removes expired entries. Should be called periodically.
func (c *MemoryListingCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	if c.containers != nil && c.containers.IsExpired() {
		c.containers = nil
		evicted++
	}
	for key, entry := range c.props {
		if entry.IsExpired() {
			delete(c.props, key)
			evicted++
		}
	}
	for key, entry := range c.blobs {
		if entry.IsExpired() {
			delete(c.blobs, key)
			evicted++
		}
	}
	c.stats.Evictions += int64(evicted)
	return evicted
}

func (c *MemoryListingCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = int64(len(c.props) + len(c.blobs))
	if c.containers != nil {
		stats.Entries++
	}
	return stats
}

// Verify MemoryListingCache implements ListingCache.
var _ ListingCache = (*MemoryListingCache)(nil)
