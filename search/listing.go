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
	"sort"
	"strings"

	"blobportal/platform/storage"
)

// ListOptions controls the listing filter/sort pipeline.
type ListOptions struct {
	// Prefix scopes the listing to the direct children of one virtual folder.
	// Empty means the root level: only blobs without any "/" in their name.
	Prefix string
	// Deleted selects the deletion states shown. The zero value keeps only
	// non-deleted blobs.
	Deleted storage.DeletedFilter
	SortBy  storage.SortField
	Order   storage.SortOrder
}

// FilterAndSort prepares a container's flat blob listing for display: keeps
// only the direct children of the prefix (descendants belong to deeper folder
// views), applies the deletion-state filter, and sorts by the requested
// column. The sort is stable; equal keys keep their listing order.
func FilterAndSort(blobs []storage.BlobRecord, opts ListOptions) []storage.BlobRecord {
	kept := make([]storage.BlobRecord, 0, len(blobs))
	for _, b := range blobs {
		if !isDirectChild(b.Name, opts.Prefix) {
			continue
		}
		if !matchesDeletedFilter(b, opts.Deleted) {
			continue
		}
		kept = append(kept, b)
	}

	sortBlobs(kept, opts.SortBy, opts.Order)
	return kept
}

// FilterDeleted keeps only the blobs matching the deletion-state filter,
// preserving listing order. The zero filter keeps only non-deleted blobs.
func FilterDeleted(blobs []storage.BlobRecord, filter storage.DeletedFilter) []storage.BlobRecord {
	kept := make([]storage.BlobRecord, 0, len(blobs))
	for _, b := range blobs {
		if matchesDeletedFilter(b, filter) {
			kept = append(kept, b)
		}
	}
	return kept
}

// isDirectChild reports whether name sits immediately below prefix: it must
// start with the prefix and the remainder must contain no further "/".
func isDirectChild(name, prefix string) bool {
	if prefix == "" {
		return !strings.Contains(name, "/")
	}
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	return !strings.Contains(name[len(prefix):], "/")
}

func matchesDeletedFilter(b storage.BlobRecord, filter storage.DeletedFilter) bool {
	switch filter {
	case storage.DeletedFilterDeleted:
		return b.Deleted
	case storage.DeletedFilterAll:
		return true
	default:
		return !b.Deleted
	}
}

// sortBlobs orders a plain listing. Unlike search results there is no
// relevance column here; an unknown or empty field falls back to name.
func sortBlobs(blobs []storage.BlobRecord, sortBy storage.SortField, order storage.SortOrder) {
	less := func(a, b storage.BlobRecord) bool {
		switch sortBy {
		case storage.SortBySize:
			return a.ContentLength < b.ContentLength
		case storage.SortByModified:
			return a.LastModified.Before(b.LastModified)
		case storage.SortByType:
			return a.ContentType < b.ContentType
		default:
			return a.Name < b.Name
		}
	}

	sort.SliceStable(blobs, func(i, j int) bool {
		if order == storage.SortDesc {
			return less(blobs[j], blobs[i])
		}
		return less(blobs[i], blobs[j])
	})
}
