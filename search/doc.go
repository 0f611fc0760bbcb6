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

// Package search implements the cross-container search, indexing, and listing
// subsystem of the BlobPortal console.
//
// The Index maintains an immutable snapshot of every container and blob in the
// account, keyed case-insensitively and rebuilt wholesale once a freshness
// window expires. Rebuilds are single-flight: concurrent callers that observe
// an expired snapshot collapse into one upstream rebuild, and the per-container
// listing fan-out is bounded by a semaphore so large accounts do not trigger
// request storms.
//
// On top of the snapshot, the package offers:
//
//   - Service.TextSearch: substring (fuzzy) or prefix matching over container
//     and blob names, metadata values, and tags. Results are kept in index
//     insertion order and cut off at the limit; they are intentionally not
//     ranked in this mode.
//   - Service.Advanced: structured criteria fanned out per container against
//     the live accessor, with a heuristic relevance score per matching blob
//     and configurable sorting. A failing container contributes zero results;
//     only a failure of the container listing itself aborts the search.
//   - VirtualDirectories: derives the one-level folder prefixes below a path
//     from a flat blob listing.
//   - FilterAndSort: the listing pipeline (direct-children scoping, deletion
//     state filter, column sort) the container browse view is built on.
package search
