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

package console

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"blobportal/platform/search"
	"blobportal/platform/storage"
)

// maxUploadBytes caps a single upload request body at 256 MiB, the azblob
// single-shot block limit.
const maxUploadBytes = 256 << 20

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "blobportal-console",
		"uptime_s":  int64(time.Since(s.startedAt).Seconds()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_s": int64(time.Since(s.startedAt).Seconds()),
	}
	if cached, ok := s.accessor.(*storage.CachedAccessor); ok {
		stats := cached.CacheStats()
		metrics["cache"] = map[string]interface{}{
			"hits":      stats.Hits,
			"misses":    stats.Misses,
			"evictions": stats.Evictions,
			"entries":   stats.Entries,
		}
	}
	if builtAt := s.search.Index().BuiltAt(); !builtAt.IsZero() {
		metrics["index_built_at"] = builtAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) listContainersHandler(w http.ResponseWriter, r *http.Request) {
	containers, err := s.accessor.ListContainers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"containers": containers,
		"count":      len(containers),
	})
}

func (s *Server) createContainerHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		s.writeBadRequest(w, r, "body must be a JSON object with a non-empty \"name\"")
		return
	}
	if err := s.accessor.CreateContainer(r.Context(), body.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate("")
	writeJSON(w, http.StatusCreated, map[string]string{"name": body.Name})
}

func (s *Server) containerPropertiesHandler(w http.ResponseWriter, r *http.Request) {
	containerName := mux.Vars(r)["container"]
	props, err := s.accessor.GetContainerProperties(r.Context(), containerName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) deleteContainerHandler(w http.ResponseWriter, r *http.Request) {
	containerName := mux.Vars(r)["container"]
	if err := s.accessor.DeleteContainer(r.Context(), containerName); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(containerName)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": containerName})
}

func (s *Server) listBlobsHandler(w http.ResponseWriter, r *http.Request) {
	containerName := mux.Vars(r)["container"]
	q := r.URL.Query()
	prefix := q.Get("prefix")

	blobs, err := s.accessor.ListBlobs(r.Context(), containerName, prefix)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Directories derive from the same deletion-filtered set as the blob list,
	// so a folder holding only soft-deleted blobs drops out of the default view.
	deleted := storage.DeletedFilter(q.Get("deleted"))
	visible := search.FilterDeleted(blobs, deleted)

	listed := search.FilterAndSort(visible, search.ListOptions{
		Prefix:  prefix,
		Deleted: deleted,
		SortBy:  storage.SortField(q.Get("sort")),
		Order:   storage.SortOrder(q.Get("order")),
	})
	dirs := search.VirtualDirectories(visible, prefix)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"container":   containerName,
		"prefix":      prefix,
		"blobs":       listed,
		"directories": dirs,
		"count":       len(listed),
	})
}

func (s *Server) uploadBlobHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	containerName, blobName := vars["container"], vars["blob"]

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		s.writeBadRequest(w, r, "failed to read request body")
		return
	}
	if len(data) > maxUploadBytes {
		s.writeBadRequest(w, r, "request body exceeds the upload size limit")
		return
	}

	input := storage.UploadInput{
		ContentType: r.Header.Get("Content-Type"),
		Metadata:    headerMap(r.Header, "X-Blob-Meta-"),
		Tags:        headerMap(r.Header, "X-Blob-Tag-"),
		Data:        data,
	}
	if err := s.accessor.UploadBlob(r.Context(), containerName, blobName, input); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(containerName)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"container": containerName,
		"blob":      blobName,
		"size":      len(data),
	})
}

func (s *Server) deleteBlobHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	containerName, blobName := vars["container"], vars["blob"]
	if err := s.accessor.DeleteBlob(r.Context(), containerName, blobName); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(containerName)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": blobName})
}

func (s *Server) undeleteBlobHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	containerName, blobName := vars["container"], vars["blob"]
	if err := s.accessor.UndeleteBlob(r.Context(), containerName, blobName); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(containerName)
	writeJSON(w, http.StatusOK, map[string]string{"undeleted": blobName})
}

func (s *Server) copyBlobHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var body struct {
		DestContainer string `json:"dest_container"`
		DestBlob      string `json:"dest_blob"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DestContainer == "" {
		s.writeBadRequest(w, r, "body must be a JSON object with a non-empty \"dest_container\"")
		return
	}
	if body.DestBlob == "" {
		body.DestBlob = vars["blob"]
	}

	input := storage.CopyInput{
		SourceContainer: vars["container"],
		SourceBlob:      vars["blob"],
		DestContainer:   body.DestContainer,
		DestBlob:        body.DestBlob,
	}
	if err := s.accessor.CopyBlob(r.Context(), input); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(body.DestContainer)
	writeJSON(w, http.StatusOK, map[string]string{
		"container": body.DestContainer,
		"blob":      body.DestBlob,
	})
}

func (s *Server) setTierHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var body struct {
		Tier storage.AccessTier `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeBadRequest(w, r, "body must be a JSON object with a \"tier\"")
		return
	}
	switch body.Tier {
	case storage.AccessTierHot, storage.AccessTierCool, storage.AccessTierArchive:
	default:
		s.writeBadRequest(w, r, "tier must be one of Hot, Cool, Archive")
		return
	}

	if err := s.accessor.SetBlobTier(r.Context(), vars["container"], vars["blob"], body.Tier); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(vars["container"])
	writeJSON(w, http.StatusOK, map[string]interface{}{"tier": body.Tier})
}

func (s *Server) setMetadataHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var metadata map[string]string
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		s.writeBadRequest(w, r, "body must be a JSON object of string pairs")
		return
	}
	if err := s.accessor.SetBlobMetadata(r.Context(), vars["container"], vars["blob"], metadata); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(vars["container"])
	writeJSON(w, http.StatusOK, map[string]interface{}{"metadata": metadata})
}

func (s *Server) setTagsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var tags map[string]string
	if err := json.NewDecoder(r.Body).Decode(&tags); err != nil {
		s.writeBadRequest(w, r, "body must be a JSON object of string pairs")
		return
	}
	if err := s.accessor.SetBlobTags(r.Context(), vars["container"], vars["blob"], tags); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(vars["container"])
	writeJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

func (s *Server) sasURLHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q := r.URL.Query()

	permissions := q.Get("permissions")
	if permissions == "" {
		permissions = "r"
	}
	expiry := 15 * time.Minute
	if raw := q.Get("expiry"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			s.writeBadRequest(w, r, "expiry must be a positive duration like 15m or 2h")
			return
		}
		expiry = parsed
	}

	url, err := s.accessor.BlobSASURL(r.Context(), vars["container"], vars["blob"], storage.SASInput{
		Permissions: permissions,
		Expiry:      expiry,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"url":        url,
		"expires_at": time.Now().Add(expiry).UTC().Format(time.RFC3339),
	})
}

func (s *Server) textSearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		s.writeBadRequest(w, r, "query parameter \"q\" is required")
		return
	}

	opts := search.TextSearchOptions{
		IncludeContainers: boolParam(q.Get("containers")),
		IncludeBlobs:      boolParam(q.Get("blobs")),
		Fuzzy:             boolParam(q.Get("fuzzy")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeBadRequest(w, r, "limit must be a non-negative integer")
			return
		}
		opts.Limit = limit
	}

	result, err := s.search.TextSearch(r.Context(), query, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) advancedSearchHandler(w http.ResponseWriter, r *http.Request) {
	var criteria storage.SearchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		s.writeBadRequest(w, r, "body must be a JSON search criteria object")
		return
	}

	result, err := s.search.Advanced(r.Context(), criteria)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) rebuildIndexHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.search.Index().ForceRebuild(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"built_at":   snap.BuiltAt.UTC().Format(time.RFC3339),
		"containers": len(snap.Containers),
		"blobs":      len(snap.Blobs),
	})
}

// headerMap collects headers sharing a prefix into a lowercase-keyed map.
func headerMap(h http.Header, prefix string) map[string]string {
	var out map[string]string
	for key, values := range h {
		if !strings.HasPrefix(key, prefix) || len(values) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[strings.ToLower(strings.TrimPrefix(key, prefix))] = values[0]
	}
	return out
}

// boolParam treats "1", "true", "yes" (any case) as true, everything else as
// false.
func boolParam(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
