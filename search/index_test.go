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
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blobportal/platform/storage"
)

func TestIndexBuildEmptyAccount(t *testing.T) {
	fake := storage.NewFakeAccessor(nil, nil)
	ix := NewIndex(fake, time.Minute, 4)

	snap, err := ix.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Containers)
	assert.Empty(t, snap.Blobs)
	assert.False(t, snap.BuiltAt.IsZero())
}

func TestIndexBuildKeysAreLowercase(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"Docs"}, []storage.BlobRecord{
		{Name: "Reports/Q3.pdf", ContainerName: "Docs"},
	})
	ix := NewIndex(fake, time.Minute, 4)

	snap, err := ix.Snapshot(context.Background())
	require.NoError(t, err)

	c, ok := snap.Container("dOCS")
	require.True(t, ok, "container lookup should be case-insensitive")
	assert.Equal(t, "Docs", c.Name, "original casing preserved in the record")

	b, ok := snap.Blob("docs", "reports/q3.PDF")
	require.True(t, ok, "blob lookup should be case-insensitive")
	assert.Equal(t, "Reports/Q3.pdf", b.Name)
}

func TestIndexCaseCollisionLastWins(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"docs"}, []storage.BlobRecord{
		{Name: "readme.md", ContainerName: "docs", ContentLength: 1},
		{Name: "README.md", ContainerName: "docs", ContentLength: 2},
	})
	ix := NewIndex(fake, time.Minute, 4)

	snap, err := ix.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Blobs, 1)
	b, ok := snap.Blob("docs", "readme.md")
	require.True(t, ok)
	assert.Equal(t, int64(2), b.ContentLength, "later listing entry wins the key")

	// The order slice must not grow on replacement.
	count := 0
	snap.EachBlob(func(storage.BlobRecord) bool { count++; return true })
	assert.Equal(t, 1, count)
}

func TestIndexContainerFailureIsolated(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"good", "bad"}, []storage.BlobRecord{
		{Name: "x.txt", ContainerName: "good"},
	})
	fake.ListBlobsErrs["bad"] = errors.New("503 server busy")
	ix := NewIndex(fake, time.Minute, 4)

	snap, err := ix.Snapshot(context.Background())
	require.NoError(t, err, "one bad container must not fail the rebuild")

	assert.Len(t, snap.Containers, 2, "the failing container still appears in the container map")
	assert.Len(t, snap.Blobs, 1, "the failing container contributes zero blobs")
}

func TestIndexContainerListFailurePropagates(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"a"}, nil)
	fake.ListContainersErr = errors.New("account unreachable")
	ix := NewIndex(fake, time.Minute, 4)

	_, err := ix.Snapshot(context.Background())
	require.Error(t, err)
}

func TestIndexSnapshotReusedWithinTTL(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"a"}, nil)
	ix := NewIndex(fake, time.Minute, 4)

	first, err := ix.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := ix.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "a fresh snapshot is reused as-is")
	assert.Equal(t, 1, fake.ListContainersCalls)
}

func TestIndexInvalidateTriggersRebuild(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"a"}, nil)
	ix := NewIndex(fake, time.Minute, 4)

	_, err := ix.Snapshot(context.Background())
	require.NoError(t, err)

	ix.Invalidate()

	_, err = ix.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.ListContainersCalls)
}

func TestIndexForceRebuild(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"a"}, nil)
	ix := NewIndex(fake, time.Minute, 4)

	_, err := ix.ForceRebuild(context.Background())
	require.NoError(t, err)
	_, err = ix.ForceRebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.ListContainersCalls)
}

// blockingAccessor wraps a FakeAccessor and stalls ListContainers until
// released, to let the test line up concurrent Snapshot callers.
type blockingAccessor struct {
	*storage.FakeAccessor
	release chan struct{}
	calls   int64
}

func (b *blockingAccessor) ListContainers(ctx context.Context) ([]storage.ContainerRecord, error) {
	atomic.AddInt64(&b.calls, 1)
	<-b.release
	return b.FakeAccessor.ListContainers(ctx)
}

func TestIndexSingleFlightRebuild(t *testing.T) {
	blocking := &blockingAccessor{
		FakeAccessor: storage.NewFakeAccessor([]string{"a"}, nil),
		release:      make(chan struct{}),
	}
	ix := NewIndex(blocking, time.Minute, 4)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = ix.Snapshot(context.Background())
		}(i)
	}

	// Give the callers time to pile up on the in-flight build, then let the
	// single upstream call through.
	time.Sleep(50 * time.Millisecond)
	close(blocking.release)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&blocking.calls),
		"concurrent expired callers must collapse into one rebuild")
}

// gaugedAccessor tracks the peak number of concurrent ListBlobs calls.
type gaugedAccessor struct {
	*storage.FakeAccessor
	current int64
	peak    int64
}

func (g *gaugedAccessor) ListBlobs(ctx context.Context, containerName, prefix string) ([]storage.BlobRecord, error) {
	cur := atomic.AddInt64(&g.current, 1)
	for {
		peak := atomic.LoadInt64(&g.peak)
		if cur <= peak || atomic.CompareAndSwapInt64(&g.peak, peak, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	defer atomic.AddInt64(&g.current, -1)
	return g.FakeAccessor.ListBlobs(ctx, containerName, prefix)
}

func TestIndexFanoutBounded(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = string(rune('a' + i))
	}
	gauged := &gaugedAccessor{FakeAccessor: storage.NewFakeAccessor(names, nil)}
	ix := NewIndex(gauged, time.Minute, 3)

	_, err := ix.Snapshot(context.Background())
	require.NoError(t, err)

	assert.LessOrEqual(t, atomic.LoadInt64(&gauged.peak), int64(3),
		"fan-out must never exceed the configured bound")
}

func TestIndexFailedBuildRetriesNextCall(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"a"}, nil)
	fake.ListContainersErr = errors.New("transient")
	ix := NewIndex(fake, time.Minute, 4)

	_, err := ix.Snapshot(context.Background())
	require.Error(t, err)

	fake.ListContainersErr = nil
	snap, err := ix.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Containers, 1)
}

func TestIndexStaleSnapshotServedWhenRebuildFails(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"a"}, nil)
	ix := NewIndex(fake, time.Minute, 4)

	first, err := ix.Snapshot(context.Background())
	require.NoError(t, err)

	ix.Invalidate()
	fake.ListContainersErr = errors.New("transient")

	snap, err := ix.Snapshot(context.Background())
	require.NoError(t, err, "a failed rebuild falls back to the previous snapshot")
	assert.Same(t, first, snap)

	// The snapshot stays stale, so the next call retries the rebuild.
	fake.ListContainersErr = nil
	fresh, err := ix.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, 3, fake.ListContainersCalls)
}
