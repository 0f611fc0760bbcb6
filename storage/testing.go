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
	"net/http"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// fakeNotFound mirrors the error shape AzureAccessor produces for a missing
// container or blob, so error-handling paths behave the same under test.
func fakeNotFound(op, containerName, blobName string, code bloberror.Code) *StorageError {
	return &StorageError{
		Op:         op,
		Container:  containerName,
		Blob:       blobName,
		StatusCode: http.StatusNotFound,
		Code:       string(code),
		Message:    "not found",
	}
}

// FakeAccessor is an in-memory Accessor for tests. Containers and blobs are
// plain slices; per-method error injection simulates backend failures.
type FakeAccessor struct {
	mu sync.RWMutex

	Containers []ContainerRecord
	Blobs      []BlobRecord

	// Error injection. ListContainersErr fails the whole listing;
	// ListBlobsErrs fails listing for specific containers only.
	ListContainersErr error
	ListBlobsErrs     map[string]error
	MutationErr       error

	// Call counters.
	ListContainersCalls int
	ListBlobsCalls      int
	SearchBlobsCalls    int
}

// NewFakeAccessor builds a FakeAccessor from container names and blobs.
func NewFakeAccessor(containerNames []string, blobs []BlobRecord) *FakeAccessor {
	containers := make([]ContainerRecord, 0, len(containerNames))
	for _, name := range containerNames {
		containers = append(containers, ContainerRecord{Name: name})
	}
	return &FakeAccessor{
		Containers:    containers,
		Blobs:         blobs,
		ListBlobsErrs: make(map[string]error),
	}
}

func (f *FakeAccessor) ListContainers(ctx context.Context) ([]ContainerRecord, error) {
	f.mu.Lock()
	f.ListContainersCalls++
	f.mu.Unlock()

	if f.ListContainersErr != nil {
		return nil, f.ListContainersErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]ContainerRecord, len(f.Containers))
	copy(out, f.Containers)
	return out, nil
}

func (f *FakeAccessor) ListBlobs(ctx context.Context, containerName, prefix string) ([]BlobRecord, error) {
	f.mu.Lock()
	f.ListBlobsCalls++
	f.mu.Unlock()

	if err := f.ListBlobsErrs[containerName]; err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]BlobRecord, 0)
	for _, b := range f.Blobs {
		if b.ContainerName != containerName {
			continue
		}
		if prefix != "" && !strings.HasPrefix(b.Name, prefix) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *FakeAccessor) GetContainerProperties(ctx context.Context, containerName string) (ContainerRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.Containers {
		if c.Name == containerName {
			return c, nil
		}
	}
	return ContainerRecord{}, fakeNotFound("GetContainerProperties", containerName, "", bloberror.ContainerNotFound)
}

func (f *FakeAccessor) SearchBlobs(ctx context.Context, containerName string, criteria SearchCriteria) ([]BlobRecord, error) {
	f.mu.Lock()
	f.SearchBlobsCalls++
	f.mu.Unlock()

	blobs, err := f.ListBlobs(ctx, containerName, "")
	if err != nil {
		return nil, err
	}
	return FilterBlobs(blobs, criteria), nil
}

func (f *FakeAccessor) UploadBlob(ctx context.Context, containerName, blobName string, input UploadInput) error {
	if f.MutationErr != nil {
		return f.MutationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Blobs = append(f.Blobs, BlobRecord{
		Name:          blobName,
		ContainerName: containerName,
		ContentLength: int64(len(input.Data)),
		ContentType:   input.ContentType,
		Metadata:      input.Metadata,
		Tags:          input.Tags,
	})
	return nil
}

func (f *FakeAccessor) DeleteBlob(ctx context.Context, containerName, blobName string) error {
	if f.MutationErr != nil {
		return f.MutationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Blobs {
		if f.Blobs[i].ContainerName == containerName && f.Blobs[i].Name == blobName {
			f.Blobs[i].Deleted = true
			return nil
		}
	}
	return fakeNotFound("DeleteBlob", containerName, blobName, bloberror.BlobNotFound)
}

func (f *FakeAccessor) UndeleteBlob(ctx context.Context, containerName, blobName string) error {
	if f.MutationErr != nil {
		return f.MutationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Blobs {
		if f.Blobs[i].ContainerName == containerName && f.Blobs[i].Name == blobName {
			f.Blobs[i].Deleted = false
			return nil
		}
	}
	return fakeNotFound("UndeleteBlob", containerName, blobName, bloberror.BlobNotFound)
}

func (f *FakeAccessor) CopyBlob(ctx context.Context, input CopyInput) error {
	if f.MutationErr != nil {
		return f.MutationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.Blobs {
		if b.ContainerName == input.SourceContainer && b.Name == input.SourceBlob {
			copied := b
			copied.ContainerName = input.DestContainer
			copied.Name = input.DestBlob
			f.Blobs = append(f.Blobs, copied)
			return nil
		}
	}
	return fakeNotFound("CopyBlob", input.SourceContainer, input.SourceBlob, bloberror.BlobNotFound)
}

func (f *FakeAccessor) CreateContainer(ctx context.Context, containerName string) error {
	if f.MutationErr != nil {
		return f.MutationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Containers = append(f.Containers, ContainerRecord{Name: containerName})
	return nil
}

func (f *FakeAccessor) DeleteContainer(ctx context.Context, containerName string) error {
	if f.MutationErr != nil {
		return f.MutationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.Containers[:0]
	for _, c := range f.Containers {
		if c.Name != containerName {
			kept = append(kept, c)
		}
	}
	f.Containers = kept
	return nil
}

func (f *FakeAccessor) SetBlobTier(ctx context.Context, containerName, blobName string, tier AccessTier) error {
	if f.MutationErr != nil {
		return f.MutationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Blobs {
		if f.Blobs[i].ContainerName == containerName && f.Blobs[i].Name == blobName {
			f.Blobs[i].AccessTier = tier
			return nil
		}
	}
	return fakeNotFound("SetBlobTier", containerName, blobName, bloberror.BlobNotFound)
}

func (f *FakeAccessor) SetBlobMetadata(ctx context.Context, containerName, blobName string, metadata map[string]string) error {
	if f.MutationErr != nil {
		return f.MutationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Blobs {
		if f.Blobs[i].ContainerName == containerName && f.Blobs[i].Name == blobName {
			f.Blobs[i].Metadata = metadata
			return nil
		}
	}
	return fakeNotFound("SetBlobMetadata", containerName, blobName, bloberror.BlobNotFound)
}

func (f *FakeAccessor) SetBlobTags(ctx context.Context, containerName, blobName string, tags map[string]string) error {
	if f.MutationErr != nil {
		return f.MutationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Blobs {
		if f.Blobs[i].ContainerName == containerName && f.Blobs[i].Name == blobName {
			f.Blobs[i].Tags = tags
			return nil
		}
	}
	return fakeNotFound("SetBlobTags", containerName, blobName, bloberror.BlobNotFound)
}

func (f *FakeAccessor) BlobSASURL(ctx context.Context, containerName, blobName string, input SASInput) (string, error) {
	return "https://fake.blob.core.windows.net/" + containerName + "/" + blobName + "?sig=fake", nil
}

// Verify FakeAccessor implements Accessor.
var _ Accessor = (*FakeAccessor)(nil)
