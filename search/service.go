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
	"time"

	"blobportal/platform/shared/logger"
	"blobportal/platform/storage"
)

const (
	// DefaultResultLimit caps search results when the caller gives no limit.
	DefaultResultLimit = 50
	// MaxResultLimit is the hard cap on any single search's result count.
	MaxResultLimit = 500
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	IndexTTL     time.Duration
	FanoutLimit  int
	DefaultLimit int
	MaxLimit     int
}

// Service ties the search index and the query operations together. One
// Service per storage account; safe for concurrent use.
type Service struct {
	accessor     storage.Accessor
	index        *Index
	fanout       int
	defaultLimit int
	maxLimit     int
	log          *logger.Logger
}

// NewService creates a search service over accessor.
func NewService(accessor storage.Accessor, opts Options) *Service {
	if opts.FanoutLimit <= 0 {
		opts.FanoutLimit = DefaultFanoutLimit
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultResultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = MaxResultLimit
	}
	return &Service{
		accessor:     accessor,
		index:        NewIndex(accessor, opts.IndexTTL, opts.FanoutLimit),
		fanout:       opts.FanoutLimit,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		log:          logger.New("search"),
	}
}

// Index exposes the underlying index for lifecycle operations (invalidation,
// forced rebuilds, freshness inspection).
func (s *Service) Index() *Index {
	return s.index
}

// RebuildIndex discards the current snapshot and rebuilds it synchronously.
func (s *Service) RebuildIndex(ctx context.Context) error {
	_, err := s.index.ForceRebuild(ctx)
	return err
}

// clampLimit normalizes a caller-supplied limit.
func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}
