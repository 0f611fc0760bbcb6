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
	"reflect"
	"strings"
	"testing"

	"blobportal/platform/storage"
)

func blobNames(names ...string) []storage.BlobRecord {
	blobs := make([]storage.BlobRecord, len(names))
	for i, n := range names {
		blobs[i] = storage.BlobRecord{Name: n, ContainerName: "c"}
	}
	return blobs
}

func TestVirtualDirectoriesRoot(t *testing.T) {
	blobs := blobNames("x.txt", "sub/y.txt", "sub/deep/z.txt", "other/a.txt")

	got := VirtualDirectories(blobs, "")
	want := []string{"other/", "sub/"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("VirtualDirectories(root) = %v, want %v", got, want)
	}
}

func TestVirtualDirectoriesNested(t *testing.T) {
	blobs := blobNames("sub/y.txt", "sub/deep/z.txt", "sub/deep/w.txt", "other/a.txt")

	got := VirtualDirectories(blobs, "sub/")
	want := []string{"sub/deep/"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("VirtualDirectories(sub/) = %v, want %v", got, want)
	}
}

func TestVirtualDirectoriesOutputShape(t *testing.T) {
	blobs := blobNames("a/1.txt", "a/b/2.txt", "c/3.txt", "plain.txt")

	for _, prefix := range []string{"", "a/", "a/b/", "c/"} {
		for _, dir := range VirtualDirectories(blobs, prefix) {
			if !strings.HasPrefix(dir, prefix) {
				t.Errorf("dir %q does not start with prefix %q", dir, prefix)
			}
			if !strings.HasSuffix(dir, "/") {
				t.Errorf("dir %q does not end with a slash", dir)
			}
		}
	}
}

func TestVirtualDirectoriesDeduplicates(t *testing.T) {
	blobs := blobNames("sub/a.txt", "sub/b.txt", "sub/c.txt")

	got := VirtualDirectories(blobs, "")
	if len(got) != 1 || got[0] != "sub/" {
		t.Fatalf("expected single deduplicated dir, got %v", got)
	}
}

func TestVirtualDirectoriesNoDirectories(t *testing.T) {
	blobs := blobNames("a.txt", "b.txt")

	if got := VirtualDirectories(blobs, ""); len(got) != 0 {
		t.Fatalf("flat listing should yield no directories, got %v", got)
	}
}

func TestVirtualDirectoriesEmptySegment(t *testing.T) {
	// A name like "sub//x" has an empty segment after the prefix; it must not
	// produce a bare "/" entry.
	blobs := blobNames("sub//x.txt")

	if got := VirtualDirectories(blobs, "sub/"); len(got) != 0 {
		t.Fatalf("empty segment should be skipped, got %v", got)
	}
}

func TestVirtualDirectoriesSorted(t *testing.T) {
	blobs := blobNames("zeta/1", "alpha/2", "mid/3")

	got := VirtualDirectories(blobs, "")
	want := []string{"alpha/", "mid/", "zeta/"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected lexicographic order, got %v", got)
	}
}
