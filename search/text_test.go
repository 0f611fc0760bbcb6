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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blobportal/platform/storage"
)

func newTextService(t *testing.T, containers []string, blobs []storage.BlobRecord) (*Service, *storage.FakeAccessor) {
	t.Helper()
	fake := storage.NewFakeAccessor(containers, blobs)
	return NewService(fake, Options{}), fake
}

func TestTextSearchPrefixMode(t *testing.T) {
	svc, _ := newTextService(t,
		[]string{"reports", "backups", "report-archive"},
		[]storage.BlobRecord{
			{Name: "report.pdf", ContainerName: "reports"},
			{Name: "annual-report.pdf", ContainerName: "reports"},
			{Name: "backup.tar", ContainerName: "backups"},
		})

	result, err := svc.TextSearch(context.Background(), "report", TextSearchOptions{})
	require.NoError(t, err)

	require.Len(t, result.Containers, 2)
	for _, c := range result.Containers {
		assert.True(t, strings.HasPrefix(strings.ToLower(c.Name), "report"),
			"prefix mode must only return names starting with the query, got %q", c.Name)
	}
	require.Len(t, result.Blobs, 1)
	assert.Equal(t, "report.pdf", result.Blobs[0].Name,
		"annual-report.pdf contains but does not start with the query")
}

func TestTextSearchPrefixIsCaseInsensitive(t *testing.T) {
	svc, _ := newTextService(t, []string{"Reports"}, []storage.BlobRecord{
		{Name: "REPORT.pdf", ContainerName: "Reports"},
	})

	result, err := svc.TextSearch(context.Background(), "rep", TextSearchOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Containers, 1)
	assert.Len(t, result.Blobs, 1)
}

func TestTextSearchFuzzySubstring(t *testing.T) {
	svc, _ := newTextService(t,
		[]string{"docs"},
		[]storage.BlobRecord{
			{Name: "annual-report.pdf", ContainerName: "docs"},
			{Name: "notes.txt", ContainerName: "docs"},
		})

	result, err := svc.TextSearch(context.Background(), "report", TextSearchOptions{Fuzzy: true})
	require.NoError(t, err)
	require.Len(t, result.Blobs, 1)
	assert.Equal(t, "annual-report.pdf", result.Blobs[0].Name)
}

func TestTextSearchFuzzyMatchesMetadataAndTags(t *testing.T) {
	svc, _ := newTextService(t,
		[]string{"docs"},
		[]storage.BlobRecord{
			{Name: "a.bin", ContainerName: "docs", Metadata: map[string]string{"owner": "Finance-Team"}},
			{Name: "b.bin", ContainerName: "docs", Tags: map[string]string{"project": "finance"}},
			{Name: "c.bin", ContainerName: "docs"},
		})

	result, err := svc.TextSearch(context.Background(), "finance", TextSearchOptions{Fuzzy: true})
	require.NoError(t, err)
	assert.Len(t, result.Blobs, 2, "metadata values and tags both count in fuzzy mode")
}

func TestTextSearchMetadataIgnoredInPrefixMode(t *testing.T) {
	svc, _ := newTextService(t,
		[]string{"docs"},
		[]storage.BlobRecord{
			{Name: "a.bin", ContainerName: "docs", Metadata: map[string]string{"owner": "finance"}},
		})

	result, err := svc.TextSearch(context.Background(), "finance", TextSearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Blobs, "prefix mode matches the name only")
}

func TestTextSearchKindSelection(t *testing.T) {
	svc, _ := newTextService(t,
		[]string{"data"},
		[]storage.BlobRecord{{Name: "data.csv", ContainerName: "data"}})

	onlyContainers, err := svc.TextSearch(context.Background(), "data", TextSearchOptions{IncludeContainers: true})
	require.NoError(t, err)
	assert.Len(t, onlyContainers.Containers, 1)
	assert.Empty(t, onlyContainers.Blobs)

	onlyBlobs, err := svc.TextSearch(context.Background(), "data", TextSearchOptions{IncludeBlobs: true})
	require.NoError(t, err)
	assert.Empty(t, onlyBlobs.Containers)
	assert.Len(t, onlyBlobs.Blobs, 1)
}

func TestTextSearchLimitStopsScan(t *testing.T) {
	blobs := make([]storage.BlobRecord, 10)
	for i := range blobs {
		blobs[i] = storage.BlobRecord{
			Name:          "file-" + string(rune('a'+i)) + ".txt",
			ContainerName: "docs",
		}
	}
	svc, _ := newTextService(t, []string{"docs"}, blobs)

	result, err := svc.TextSearch(context.Background(), "file",
		TextSearchOptions{IncludeBlobs: true, Limit: 3})
	require.NoError(t, err)

	// The scan walks listing order and stops at the limit, keeping the first
	// matches rather than any best ones.
	require.Len(t, result.Blobs, 3)
	assert.Equal(t, "file-a.txt", result.Blobs[0].Name)
	assert.Equal(t, "file-c.txt", result.Blobs[2].Name)
}

func TestTextSearchEmptyQueryMatchesEverything(t *testing.T) {
	svc, _ := newTextService(t,
		[]string{"a", "b"},
		[]storage.BlobRecord{{Name: "x.txt", ContainerName: "a"}})

	result, err := svc.TextSearch(context.Background(), "", TextSearchOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Containers, 2)
	assert.Len(t, result.Blobs, 1)
}

func TestTextSearchIndexErrorPropagates(t *testing.T) {
	fake := storage.NewFakeAccessor([]string{"a"}, nil)
	fake.ListContainersErr = errors.New("account unreachable")
	svc := NewService(fake, Options{})

	_, err := svc.TextSearch(context.Background(), "x", TextSearchOptions{})
	require.Error(t, err)
}

func TestTextSearchUsesCachedSnapshot(t *testing.T) {
	svc, fake := newTextService(t, []string{"a"}, nil)

	_, err := svc.TextSearch(context.Background(), "x", TextSearchOptions{})
	require.NoError(t, err)
	_, err = svc.TextSearch(context.Background(), "y", TextSearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.ListContainersCalls, "repeated searches share one index build")
}
