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

// VirtualDirectories derives the folder prefixes one level below prefix from a
// flat blob listing. For each blob name that starts with prefix and whose
// remainder contains a "/" past position zero, the emitted entry is
// prefix + segment + "/". The result is deduplicated and sorted. The function
// does not recurse: navigating into a folder means calling it again with the
// longer prefix.
func VirtualDirectories(blobs []storage.BlobRecord, prefix string) []string {
	seen := make(map[string]struct{})

	for _, b := range blobs {
		if !strings.HasPrefix(b.Name, prefix) {
			continue
		}
		relative := b.Name[len(prefix):]
		slash := strings.Index(relative, "/")
		// A slash at position zero is a degenerate empty segment.
		if slash <= 0 {
			continue
		}
		seen[prefix+relative[:slash+1]] = struct{}{}
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
