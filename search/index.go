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

package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"blobportal/platform/shared/logger"
	"blobportal/platform/storage"
)

const (
	// DefaultIndexTTL is the freshness window of a snapshot.
	DefaultIndexTTL = 5 * time.Minute
	// DefaultFanoutLimit bounds concurrent per-container listing calls.
	DefaultFanoutLimit = 8
)

// Prometheus metrics
var (
	promIndexRebuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blobportal_index_rebuilds_total",
			Help: "Total number of search index rebuilds",
		},
		[]string{"outcome"},
	)
	promIndexRebuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blobportal_index_rebuild_duration_seconds",
			Help:    "Search index rebuild duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	promIndexContainerFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blobportal_index_container_failures_total",
			Help: "Containers whose blob listing failed during an index rebuild",
		},
	)
)

func init() {
	// Register Prometheus metrics
	prometheus.MustRegister(promIndexRebuilds)
	prometheus.MustRegister(promIndexRebuildDuration)
	prometheus.MustRegister(promIndexContainerFailures)
}

// Snapshot is one immutable build of the account-wide search index. Containers
// are keyed by lowercased name, blobs by the lowercased "container/name"
// composite, making lookups case-insensitive by construction. Two blobs whose
// names differ only by case collide on the same key; the later listing entry
// wins. Iteration order is the insertion order of the build: containers in
// account listing order, blobs grouped by container in listing order.
type Snapshot struct {
	Containers map[string]storage.ContainerRecord
	Blobs      map[string]storage.BlobRecord
	BuiltAt    time.Time

	containerOrder []string
	blobOrder      []string
}

// NewSnapshot creates an empty snapshot stamped now.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Containers: make(map[string]storage.ContainerRecord),
		Blobs:      make(map[string]storage.BlobRecord),
		BuiltAt:    time.Now(),
	}
}

// AddContainer inserts or replaces a container record.
func (s *Snapshot) AddContainer(rec storage.ContainerRecord) {
	key := strings.ToLower(rec.Name)
	if _, exists := s.Containers[key]; !exists {
		s.containerOrder = append(s.containerOrder, key)
	}
	s.Containers[key] = rec
}

// AddBlob inserts or replaces a blob record.
func (s *Snapshot) AddBlob(rec storage.BlobRecord) {
	key := BlobKey(rec.ContainerName, rec.Name)
	if _, exists := s.Blobs[key]; !exists {
		s.blobOrder = append(s.blobOrder, key)
	}
	s.Blobs[key] = rec
}

// Container looks up a container case-insensitively.
func (s *Snapshot) Container(name string) (storage.ContainerRecord, bool) {
	rec, ok := s.Containers[strings.ToLower(name)]
	return rec, ok
}

// Blob looks up a blob case-insensitively.
func (s *Snapshot) Blob(containerName, blobName string) (storage.BlobRecord, bool) {
	rec, ok := s.Blobs[BlobKey(containerName, blobName)]
	return rec, ok
}

// EachContainer visits containers in insertion order until fn returns false.
func (s *Snapshot) EachContainer(fn func(storage.ContainerRecord) bool) {
	for _, key := range s.containerOrder {
		if !fn(s.Containers[key]) {
			return
		}
	}
}

// EachBlob visits blobs in insertion order until fn returns false.
func (s *Snapshot) EachBlob(fn func(storage.BlobRecord) bool) {
	for _, key := range s.blobOrder {
		if !fn(s.Blobs[key]) {
			return
		}
	}
}

// BlobKey composes the case-insensitive index key of one blob.
func BlobKey(containerName, blobName string) string {
	return strings.ToLower(containerName) + "/" + strings.ToLower(blobName)
}

// Index owns the current snapshot and its rebuild lifecycle.
type Index struct {
	accessor storage.Accessor
	ttl      time.Duration
	fanout   int
	log      *logger.Logger

	mu       sync.Mutex
	current  *Snapshot
	stale    bool
	building chan struct{}
	buildErr error
}

// NewIndex creates an index over accessor. Zero values for ttl and fanout
// select the package defaults.
func NewIndex(accessor storage.Accessor, ttl time.Duration, fanout int) *Index {
	if ttl <= 0 {
		ttl = DefaultIndexTTL
	}
	if fanout <= 0 {
		fanout = DefaultFanoutLimit
	}
	return &Index{
		accessor: accessor,
		ttl:      ttl,
		fanout:   fanout,
		log:      logger.New("search-index"),
	}
}

// Snapshot returns a snapshot no older than the TTL, rebuilding if necessary.
// Concurrent callers that find the snapshot expired collapse into a single
// rebuild; the others block until it finishes and share its result. A failed
// rebuild falls back to the previous snapshot when one exists, for every
// caller alike; the error surfaces only when no snapshot has ever been built.
// The snapshot stays marked stale, so the next call retries the rebuild.
func (ix *Index) Snapshot(ctx context.Context) (*Snapshot, error) {
	ix.mu.Lock()

	if ix.fresh() {
		snap := ix.current
		ix.mu.Unlock()
		return snap, nil
	}

	if ix.building != nil {
		// Another goroutine is already rebuilding; wait for it.
		done := ix.building
		ix.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
		}

		ix.mu.Lock()
		snap, err := ix.current, ix.buildErr
		ix.mu.Unlock()
		if snap == nil {
			return nil, err
		}
		return snap, nil
	}

	done := make(chan struct{})
	ix.building = done
	ix.mu.Unlock()

	snap, err := ix.build(ctx)

	ix.mu.Lock()
	ix.building = nil
	ix.buildErr = err
	if err == nil {
		ix.current = snap
		ix.stale = false
	}
	previous := ix.current
	close(done)
	ix.mu.Unlock()

	if err != nil {
		if previous != nil {
			return previous, nil
		}
		return nil, err
	}
	return snap, nil
}

// ForceRebuild discards the current snapshot and builds a fresh one.
func (ix *Index) ForceRebuild(ctx context.Context) (*Snapshot, error) {
	ix.Invalidate()
	return ix.Snapshot(ctx)
}

// Invalidate marks the current snapshot stale so the next Snapshot call
// rebuilds. The stale snapshot stays readable until then.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	ix.stale = true
	ix.mu.Unlock()
}

// BuiltAt reports when the current snapshot was built, zero when none exists.
func (ix *Index) BuiltAt() time.Time {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.current == nil {
		return time.Time{}
	}
	return ix.current.BuiltAt
}

// fresh must be called with ix.mu held.
func (ix *Index) fresh() bool {
	return ix.current != nil && !ix.stale && time.Since(ix.current.BuiltAt) < ix.ttl
}

// build lists every container, then fans out one blob listing per container.
// A container whose listing fails contributes zero blobs; the failure is
// logged and counted, never propagated. Only a failure of the container list
// itself aborts the build.
func (ix *Index) build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	containers, err := ix.accessor.ListContainers(ctx)
	if err != nil {
		promIndexRebuilds.WithLabelValues("error").Inc()
		return nil, err
	}

	blobsByContainer := make([][]storage.BlobRecord, len(containers))
	sem := make(chan struct{}, ix.fanout)
	var wg sync.WaitGroup

	for i, c := range containers {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			blobs, listErr := ix.accessor.ListBlobs(ctx, name, "")
			if listErr != nil {
				promIndexContainerFailures.Inc()
				ix.log.Warn("", "container listing failed during index rebuild, contributing zero blobs", map[string]interface{}{
					"container": name,
					"error":     listErr.Error(),
				})
				return
			}
			blobsByContainer[idx] = blobs
		}(i, c.Name)
	}
	wg.Wait()

	snap := NewSnapshot()
	for i, c := range containers {
		snap.AddContainer(c)
		for _, b := range blobsByContainer[i] {
			snap.AddBlob(b)
		}
	}

	elapsed := time.Since(start)
	promIndexRebuilds.WithLabelValues("success").Inc()
	promIndexRebuildDuration.Observe(elapsed.Seconds())
	ix.log.InfoWithDuration("", "search index rebuilt", float64(elapsed.Milliseconds()), map[string]interface{}{
		"containers": len(snap.Containers),
		"blobs":      len(snap.Blobs),
	})
	return snap, nil
}
