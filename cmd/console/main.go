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

// Package main is the entry point for the BlobPortal console service.
//
// The console is a server-rendered management surface for one Azure Blob
// Storage account:
// - Lists containers and blobs with folder-style prefix navigation
// - Builds and serves an account-wide search index (text and criteria search)
// - Uploads, deletes, restores, copies, and re-tiers blobs
// - Issues time-limited SAS download links
//
// Usage:
//
//	./console
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	AZURE_STORAGE_ACCOUNT / AZURE_STORAGE_KEY - shared-key auth
//	AZURE_STORAGE_CONNECTION_STRING - connection-string auth
//	AZURE_USE_DEFAULT_CREDENTIAL - ambient Azure credential chain
//	REDIS_URL - Redis listing cache (optional)
//	CONSOLE_CONFIG - YAML config file path (optional)
//	CONSOLE_JWT_SECRET - bearer-token auth (optional)
package main

import (
	"blobportal/platform/console"
)

func main() {
	console.Run()
}
