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
	"regexp"
	"strings"
	"time"
)

// PublicAccessLevel describes the anonymous access level of a container.
type PublicAccessLevel string

const (
	PublicAccessNone      PublicAccessLevel = "none"
	PublicAccessBlob      PublicAccessLevel = "blob"
	PublicAccessContainer PublicAccessLevel = "container"
)

// AccessTier is the storage tier of a blob.
type AccessTier string

const (
	AccessTierHot     AccessTier = "Hot"
	AccessTierCool    AccessTier = "Cool"
	AccessTierArchive AccessTier = "Archive"
)

// SortField selects the sort column for listings and search results.
type SortField string

const (
	SortByName      SortField = "name"
	SortBySize      SortField = "size"
	SortByModified  SortField = "modified"
	SortByType      SortField = "type"
	SortByRelevance SortField = "relevance"
)

// SortOrder selects ascending or descending sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DeletedFilter selects which deletion states a listing includes.
type DeletedFilter string

const (
	// DeletedFilterActive keeps only blobs that are not soft-deleted. This is
	// the default when no filter is given.
	DeletedFilterActive DeletedFilter = "active"
	// DeletedFilterDeleted keeps only soft-deleted blobs.
	DeletedFilterDeleted DeletedFilter = "deleted"
	// DeletedFilterAll disables filtering by deletion state.
	DeletedFilterAll DeletedFilter = "all"
)

// ContainerRecord is a snapshot of one container's listing entry.
type ContainerRecord struct {
	Name                  string            `json:"name"`
	LastModified          time.Time         `json:"last_modified"`
	ETag                  string            `json:"etag"`
	PublicAccess          PublicAccessLevel `json:"public_access"`
	Metadata              map[string]string `json:"metadata,omitempty"`
	HasImmutabilityPolicy bool              `json:"has_immutability_policy"`
	HasLegalHold          bool              `json:"has_legal_hold"`
}

// BlobRecord is a snapshot of one blob's listing entry. Name is the full blob
// key and may contain "/" separators that emulate folders.
type BlobRecord struct {
	Name          string            `json:"name"`
	ContainerName string            `json:"container_name"`
	LastModified  time.Time         `json:"last_modified"`
	ETag          string            `json:"etag"`
	ContentLength int64             `json:"content_length"`
	ContentType   string            `json:"content_type"`
	AccessTier    AccessTier        `json:"access_tier,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
	Deleted       bool              `json:"deleted"`
}

// SearchCriteria is a structured blob filter. All fields are optional; zero
// values mean "no constraint". NamePattern and ContainerPattern are treated as
// case-insensitive regular expressions.
type SearchCriteria struct {
	NamePattern      string            `json:"name_pattern,omitempty"`
	MinSize          *int64            `json:"min_size,omitempty"`
	MaxSize          *int64            `json:"max_size,omitempty"`
	ModifiedAfter    *time.Time        `json:"modified_after,omitempty"`
	ModifiedBefore   *time.Time        `json:"modified_before,omitempty"`
	AccessTier       AccessTier        `json:"access_tier,omitempty"`
	ContainerPattern string            `json:"container_pattern,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
	SortBy           SortField         `json:"sort_by,omitempty"`
	SortOrder        SortOrder         `json:"sort_order,omitempty"`
	Limit            int               `json:"limit,omitempty"`
}

// UploadInput describes a blob upload.
type UploadInput struct {
	ContentType string
	Metadata    map[string]string
	Tags        map[string]string
	Data        []byte
}

// CopyInput describes a server-side blob copy.
type CopyInput struct {
	SourceContainer string
	SourceBlob      string
	DestContainer   string
	DestBlob        string
}

// SASInput describes a SAS URL request for a single blob.
type SASInput struct {
	// Permissions is a subset of "rwdc" (read, write, delete, create).
	Permissions string
	Expiry      time.Duration
}

// Accessor is the storage backend surface the console and the search subsystem
// consume. Read methods return point-in-time snapshots; mutation methods take
// effect immediately on the backend.
type Accessor interface {
	ListContainers(ctx context.Context) ([]ContainerRecord, error)
	ListBlobs(ctx context.Context, containerName, prefix string) ([]BlobRecord, error)
	GetContainerProperties(ctx context.Context, containerName string) (ContainerRecord, error)
	SearchBlobs(ctx context.Context, containerName string, criteria SearchCriteria) ([]BlobRecord, error)

	UploadBlob(ctx context.Context, containerName, blobName string, input UploadInput) error
	DeleteBlob(ctx context.Context, containerName, blobName string) error
	UndeleteBlob(ctx context.Context, containerName, blobName string) error
	CopyBlob(ctx context.Context, input CopyInput) error
	CreateContainer(ctx context.Context, containerName string) error
	DeleteContainer(ctx context.Context, containerName string) error
	SetBlobTier(ctx context.Context, containerName, blobName string, tier AccessTier) error
	SetBlobMetadata(ctx context.Context, containerName, blobName string, metadata map[string]string) error
	SetBlobTags(ctx context.Context, containerName, blobName string, tags map[string]string) error
	BlobSASURL(ctx context.Context, containerName, blobName string, input SASInput) (string, error)
}

// MatchesCriteria reports whether a blob satisfies every constraint in the
// criteria. The name pattern is matched case-insensitively; a pattern that does
// not compile as a regular expression falls back to substring matching.
func MatchesCriteria(b BlobRecord, criteria SearchCriteria) bool {
	if criteria.NamePattern != "" && !MatchPattern(b.Name, criteria.NamePattern) {
		return false
	}
	if criteria.MinSize != nil && b.ContentLength < *criteria.MinSize {
		return false
	}
	if criteria.MaxSize != nil && b.ContentLength > *criteria.MaxSize {
		return false
	}
	if criteria.ModifiedAfter != nil && b.LastModified.Before(*criteria.ModifiedAfter) {
		return false
	}
	if criteria.ModifiedBefore != nil && b.LastModified.After(*criteria.ModifiedBefore) {
		return false
	}
	if criteria.AccessTier != "" && b.AccessTier != criteria.AccessTier {
		return false
	}
	for k, v := range criteria.Metadata {
		if b.Metadata[k] != v {
			return false
		}
	}
	for k, v := range criteria.Tags {
		if b.Tags[k] != v {
			return false
		}
	}
	return true
}

// FilterBlobs applies MatchesCriteria to a listing. Sort and limit are not
// applied here; aggregation across containers owns ordering and truncation.
func FilterBlobs(blobs []BlobRecord, criteria SearchCriteria) []BlobRecord {
	matched := make([]BlobRecord, 0, len(blobs))
	for _, b := range blobs {
		if MatchesCriteria(b, criteria) {
			matched = append(matched, b)
		}
	}
	return matched
}

// MatchPattern matches name against a case-insensitive regex pattern,
// degrading to substring matching when the pattern does not compile.
func MatchPattern(name, pattern string) bool {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
	}
	return re.MatchString(name)
}
