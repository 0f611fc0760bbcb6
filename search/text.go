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
	"time"

	"blobportal/platform/storage"
)

// TextSearchOptions controls one text search.
type TextSearchOptions struct {
	// IncludeContainers and IncludeBlobs select the record kinds scanned.
	// Both default to true when neither is set.
	IncludeContainers bool `json:"include_containers"`
	IncludeBlobs      bool `json:"include_blobs"`
	// Fuzzy matches the query as a substring of names, metadata values, and
	// tags. When false, only names matching by prefix qualify.
	Fuzzy bool `json:"fuzzy"`
	Limit int  `json:"limit"`
}

// TextSearchResult carries the matches of one text search.
type TextSearchResult struct {
	Containers []storage.ContainerRecord `json:"containers"`
	Blobs      []storage.BlobRecord      `json:"blobs"`
	ElapsedMS  float64                   `json:"elapsed_ms"`
}

// TextSearch scans the index snapshot for query. Matching is case-insensitive.
// Containers and blobs are visited in index insertion order and the first
// `limit` matches of each kind are kept; results are deliberately unranked in
// this mode. An empty index or a query with no matches yields empty slices,
// not an error.
func (s *Service) TextSearch(ctx context.Context, query string, opts TextSearchOptions) (TextSearchResult, error) {
	start := time.Now()

	if !opts.IncludeContainers && !opts.IncludeBlobs {
		opts.IncludeContainers = true
		opts.IncludeBlobs = true
	}
	limit := s.clampLimit(opts.Limit)

	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return TextSearchResult{}, err
	}

	needle := strings.ToLower(query)
	result := TextSearchResult{
		Containers: make([]storage.ContainerRecord, 0),
		Blobs:      make([]storage.BlobRecord, 0),
	}

	if opts.IncludeContainers {
		snap.EachContainer(func(c storage.ContainerRecord) bool {
			if containerMatchesText(c, needle, opts.Fuzzy) {
				result.Containers = append(result.Containers, c)
			}
			return len(result.Containers) < limit
		})
	}

	if opts.IncludeBlobs {
		snap.EachBlob(func(b storage.BlobRecord) bool {
			if blobMatchesText(b, needle, opts.Fuzzy) {
				result.Blobs = append(result.Blobs, b)
			}
			return len(result.Blobs) < limit
		})
	}

	result.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000
	return result, nil
}

func containerMatchesText(c storage.ContainerRecord, needle string, fuzzy bool) bool {
	name := strings.ToLower(c.Name)
	if !fuzzy {
		return strings.HasPrefix(name, needle)
	}
	if strings.Contains(name, needle) {
		return true
	}
	return anyValueContains(c.Metadata, needle)
}

func blobMatchesText(b storage.BlobRecord, needle string, fuzzy bool) bool {
	name := strings.ToLower(b.Name)
	if !fuzzy {
		return strings.HasPrefix(name, needle)
	}
	if strings.Contains(name, needle) {
		return true
	}
	if anyValueContains(b.Metadata, needle) {
		return true
	}
	for k, v := range b.Tags {
		if strings.Contains(strings.ToLower(k), needle) || strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func anyValueContains(m map[string]string, needle string) bool {
	for _, v := range m {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
