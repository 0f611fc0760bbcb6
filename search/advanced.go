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
	"sort"
	"strings"
	"sync"
	"time"

	"blobportal/platform/storage"
)

// recencyWindow is how far back a blob's last-modified time may lie to earn
// the recency bonus.
const recencyWindow = 7 * 24 * time.Hour

// ScoredBlob is a blob match with its computed relevance score.
type ScoredBlob struct {
	storage.BlobRecord
	Score float64 `json:"score"`
}

// AdvancedSearchResult carries the matches of one structured search.
type AdvancedSearchResult struct {
	Containers   []storage.ContainerRecord `json:"containers"`
	Blobs        []ScoredBlob              `json:"blobs"`
	TotalResults int                       `json:"total_results"`
	ElapsedMS    float64                   `json:"elapsed_ms"`
}

// Advanced runs a structured search across the account. The container target
// set is the full listing, optionally narrowed by the container pattern; each
// target container is filtered independently and concurrently, and a failing
// container contributes zero results rather than failing the search. Blobs are
// scored (meaningful when a name pattern is given), sorted, and truncated to
// the limit; the container list is truncated independently.
func (s *Service) Advanced(ctx context.Context, criteria storage.SearchCriteria) (AdvancedSearchResult, error) {
	start := time.Now()
	limit := s.clampLimit(criteria.Limit)

	containers, err := s.accessor.ListContainers(ctx)
	if err != nil {
		return AdvancedSearchResult{}, err
	}

	targets := containers
	if criteria.ContainerPattern != "" {
		targets = make([]storage.ContainerRecord, 0, len(containers))
		for _, c := range containers {
			if storage.MatchPattern(c.Name, criteria.ContainerPattern) {
				targets = append(targets, c)
			}
		}
	}

	matchesByContainer := make([][]storage.BlobRecord, len(targets))
	sem := make(chan struct{}, s.fanout)
	var wg sync.WaitGroup

	for i, c := range targets {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			blobs, searchErr := s.accessor.SearchBlobs(ctx, name, criteria)
			if searchErr != nil {
				s.log.Warn("", "container search failed, contributing zero results", map[string]interface{}{
					"container": name,
					"error":     searchErr.Error(),
				})
				return
			}
			matchesByContainer[idx] = blobs
		}(i, c.Name)
	}
	wg.Wait()

	scored := make([]ScoredBlob, 0)
	for _, blobs := range matchesByContainer {
		for _, b := range blobs {
			scored = append(scored, ScoredBlob{
				BlobRecord: b,
				Score:      RelevanceScore(b, criteria.NamePattern),
			})
		}
	}

	sortScoredBlobs(scored, criteria.SortBy, criteria.SortOrder)

	total := len(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	if len(targets) > limit {
		targets = targets[:limit]
	}

	return AdvancedSearchResult{
		Containers:   targets,
		Blobs:        scored,
		TotalResults: total,
		ElapsedMS:    float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

// RelevanceScore computes the heuristic ranking score of one blob against a
// name pattern:
//
//	exact case-insensitive name match        +100
//	name starts with the pattern, not exact   +80
//	pattern matches elsewhere in the name     +50
//	length bonus                              +max(0, 20 - len(name)/10)
//	modified within the last 7 days            +5
//
// With an empty pattern only the length and recency bonuses apply.
func RelevanceScore(b storage.BlobRecord, namePattern string) float64 {
	score := 0.0

	if namePattern != "" {
		name := strings.ToLower(b.Name)
		pattern := strings.ToLower(namePattern)
		switch {
		case name == pattern:
			score += 100
		case strings.HasPrefix(name, pattern):
			score += 80
		case storage.MatchPattern(b.Name, namePattern):
			score += 50
		}
	}

	if bonus := 20 - float64(len(b.Name))/10; bonus > 0 {
		score += bonus
	}

	if time.Since(b.LastModified) < recencyWindow {
		score += 5
	}

	return score
}

// sortScoredBlobs orders blobs by the requested field. Relevance defaults to
// descending, every other field to ascending; an explicit order overrides.
// The sort is stable so equal keys keep their fan-out assembly order.
func sortScoredBlobs(blobs []ScoredBlob, sortBy storage.SortField, order storage.SortOrder) {
	if sortBy == "" {
		sortBy = storage.SortByRelevance
	}
	if order == "" {
		if sortBy == storage.SortByRelevance {
			order = storage.SortDesc
		} else {
			order = storage.SortAsc
		}
	}

	less := func(a, b ScoredBlob) bool {
		switch sortBy {
		case storage.SortBySize:
			return a.ContentLength < b.ContentLength
		case storage.SortByModified:
			return a.LastModified.Before(b.LastModified)
		case storage.SortByRelevance:
			return a.Score < b.Score
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
