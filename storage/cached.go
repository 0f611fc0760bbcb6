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
)

// CachedAccessor wraps an Accessor with a time-boxed memoizing cache for the
// read operations. Mutations pass through to the inner accessor and invalidate
// the cached state of the container they touch.
type CachedAccessor struct {
	inner Accessor
	cache ListingCache
}

// NewCachedAccessor wraps inner with cache.
func NewCachedAccessor(inner Accessor, cache ListingCache) *CachedAccessor {
	return &CachedAccessor{inner: inner, cache: cache}
}

// CacheStats exposes the backing cache's counters.
func (a *CachedAccessor) CacheStats() CacheStats {
	return a.cache.Stats()
}

// Invalidate drops all cached state for one container, or everything when
// containerName is empty.
func (a *CachedAccessor) Invalidate(containerName string) {
	if containerName == "" {
		a.cache.InvalidateAll()
		return
	}
	a.cache.InvalidateContainer(containerName)
}

func (a *CachedAccessor) ListContainers(ctx context.Context) ([]ContainerRecord, error) {
	if records, ok := a.cache.GetContainers(); ok {
		return records, nil
	}
	records, err := a.inner.ListContainers(ctx)
	if err != nil {
		return nil, err
	}
	a.cache.SetContainers(records)
	return records, nil
}

func (a *CachedAccessor) ListBlobs(ctx context.Context, containerName, prefix string) ([]BlobRecord, error) {
	if blobs, ok := a.cache.GetBlobs(containerName, prefix); ok {
		return blobs, nil
	}
	blobs, err := a.inner.ListBlobs(ctx, containerName, prefix)
	if err != nil {
		return nil, err
	}
	a.cache.SetBlobs(containerName, prefix, blobs)
	return blobs, nil
}

func (a *CachedAccessor) GetContainerProperties(ctx context.Context, containerName string) (ContainerRecord, error) {
	if record, ok := a.cache.GetContainerProps(containerName); ok {
		return record, nil
	}
	record, err := a.inner.GetContainerProperties(ctx, containerName)
	if err != nil {
		return ContainerRecord{}, err
	}
	a.cache.SetContainerProps(record)
	return record, nil
}

// SearchBlobs filters the container's cached full listing rather than
// delegating, so repeated searches within the freshness window cost one
// backend call total.
func (a *CachedAccessor) SearchBlobs(ctx context.Context, containerName string, criteria SearchCriteria) ([]BlobRecord, error) {
	blobs, err := a.ListBlobs(ctx, containerName, "")
	if err != nil {
		return nil, err
	}
	return FilterBlobs(blobs, criteria), nil
}

func (a *CachedAccessor) UploadBlob(ctx context.Context, containerName, blobName string, input UploadInput) error {
	if err := a.inner.UploadBlob(ctx, containerName, blobName, input); err != nil {
		return err
	}
	a.cache.InvalidateContainer(containerName)
	return nil
}

func (a *CachedAccessor) DeleteBlob(ctx context.Context, containerName, blobName string) error {
	if err := a.inner.DeleteBlob(ctx, containerName, blobName); err != nil {
		return err
	}
	a.cache.InvalidateContainer(containerName)
	return nil
}

func (a *CachedAccessor) UndeleteBlob(ctx context.Context, containerName, blobName string) error {
	if err := a.inner.UndeleteBlob(ctx, containerName, blobName); err != nil {
		return err
	}
	a.cache.InvalidateContainer(containerName)
	return nil
}

func (a *CachedAccessor) CopyBlob(ctx context.Context, input CopyInput) error {
	if err := a.inner.CopyBlob(ctx, input); err != nil {
		return err
	}
	a.cache.InvalidateContainer(input.DestContainer)
	return nil
}

func (a *CachedAccessor) CreateContainer(ctx context.Context, containerName string) error {
	if err := a.inner.CreateContainer(ctx, containerName); err != nil {
		return err
	}
	a.cache.InvalidateContainer(containerName)
	return nil
}

func (a *CachedAccessor) DeleteContainer(ctx context.Context, containerName string) error {
	if err := a.inner.DeleteContainer(ctx, containerName); err != nil {
		return err
	}
	a.cache.InvalidateContainer(containerName)
	return nil
}

func (a *CachedAccessor) SetBlobTier(ctx context.Context, containerName, blobName string, tier AccessTier) error {
	if err := a.inner.SetBlobTier(ctx, containerName, blobName, tier); err != nil {
		return err
	}
	a.cache.InvalidateContainer(containerName)
	return nil
}

func (a *CachedAccessor) SetBlobMetadata(ctx context.Context, containerName, blobName string, metadata map[string]string) error {
	if err := a.inner.SetBlobMetadata(ctx, containerName, blobName, metadata); err != nil {
		return err
	}
	a.cache.InvalidateContainer(containerName)
	return nil
}

func (a *CachedAccessor) SetBlobTags(ctx context.Context, containerName, blobName string, tags map[string]string) error {
	if err := a.inner.SetBlobTags(ctx, containerName, blobName, tags); err != nil {
		return err
	}
	a.cache.InvalidateContainer(containerName)
	return nil
}

// BlobSASURL is side-effect free and not worth caching; signing is local.
func (a *CachedAccessor) BlobSASURL(ctx context.Context, containerName, blobName string, input SASInput) (string, error) {
	return a.inner.BlobSASURL(ctx, containerName, blobName, input)
}

// Verify CachedAccessor implements Accessor.
var _ Accessor = (*CachedAccessor)(nil)
