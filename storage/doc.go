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

// Package storage provides the Azure Blob Storage accessor for the BlobPortal
// console. It wraps github.com/Azure/azure-sdk-for-go/sdk/storage/azblob behind
// the Accessor interface: container and blob listing, structured blob search,
// and the mutation operations the console exposes (upload, delete, copy, tier,
// metadata, tags, SAS URL generation).
//
// Accessor implementations:
//
//   - AzureAccessor talks to the storage account directly. It supports
//     connection-string, shared-key, and DefaultAzureCredential authentication.
//   - CachedAccessor wraps any Accessor with a time-boxed memoizing cache for
//     the read operations. Mutations pass through and invalidate the cached
//     listings of the touched container. The cache backend is in-process by
//     default; a Redis backend can be configured so console replicas share one
//     cache.
//
// All read operations are single-attempt: errors from the backend are mapped to
// *StorageError (preserving the HTTP status code and the service error code)
// and returned as-is, with no retry or backoff. Callers that can degrade
// per-container (the search index builder, the relevance search) do so at their
// own fan-out boundary.
package storage
