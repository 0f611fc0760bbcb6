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
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blobportal/platform/config"
	"blobportal/platform/search"
	"blobportal/platform/shared/logger"
	"blobportal/platform/storage"
)

// Server owns the HTTP surface of the console. The accessor is usually a
// CachedAccessor; when it is, mutations also invalidate its listing cache.
type Server struct {
	accessor  storage.Accessor
	search    *search.Service
	cfg       config.Config
	log       *logger.Logger
	startedAt time.Time
}

// NewServer wires a server over accessor.
func NewServer(accessor storage.Accessor, cfg config.Config) *Server {
	return &Server{
		accessor: accessor,
		search: search.NewService(accessor, search.Options{
			IndexTTL:     cfg.Index.TTL,
			FanoutLimit:  cfg.Index.FanoutLimit,
			DefaultLimit: cfg.Search.DefaultLimit,
			MaxLimit:     cfg.Search.MaxLimit,
		}),
		cfg:       cfg,
		log:       logger.New("console"),
		startedAt: time.Now(),
	}
}

// Router builds the full route table with middleware applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	// Health and metrics
	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/metrics", s.metricsHandler).Methods("GET") // JSON metrics
	r.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	// Containers
	r.HandleFunc("/api/v1/containers", s.listContainersHandler).Methods("GET")
	r.HandleFunc("/api/v1/containers", s.createContainerHandler).Methods("POST")
	r.HandleFunc("/api/v1/containers/{container}", s.containerPropertiesHandler).Methods("GET")
	r.HandleFunc("/api/v1/containers/{container}", s.deleteContainerHandler).Methods("DELETE")

	// Blob listing under a container
	r.HandleFunc("/api/v1/containers/{container}/blobs", s.listBlobsHandler).Methods("GET")

	// Blob actions. Action suffixes are registered before the generic blob
	// routes so mux resolves them first; a blob literally named "x/tier" is
	// not addressable through the PUT routes.
	r.HandleFunc("/api/v1/containers/{container}/blobs/{blob:.+}/undelete", s.undeleteBlobHandler).Methods("POST")
	r.HandleFunc("/api/v1/containers/{container}/blobs/{blob:.+}/copy", s.copyBlobHandler).Methods("POST")
	r.HandleFunc("/api/v1/containers/{container}/blobs/{blob:.+}/tier", s.setTierHandler).Methods("PUT")
	r.HandleFunc("/api/v1/containers/{container}/blobs/{blob:.+}/metadata", s.setMetadataHandler).Methods("PUT")
	r.HandleFunc("/api/v1/containers/{container}/blobs/{blob:.+}/tags", s.setTagsHandler).Methods("PUT")
	r.HandleFunc("/api/v1/containers/{container}/blobs/{blob:.+}/sas", s.sasURLHandler).Methods("GET")
	r.HandleFunc("/api/v1/containers/{container}/blobs/{blob:.+}", s.uploadBlobHandler).Methods("PUT")
	r.HandleFunc("/api/v1/containers/{container}/blobs/{blob:.+}", s.deleteBlobHandler).Methods("DELETE")

	// Search
	r.HandleFunc("/api/v1/search", s.textSearchHandler).Methods("GET")
	r.HandleFunc("/api/v1/search/advanced", s.advancedSearchHandler).Methods("POST")
	r.HandleFunc("/api/v1/index/rebuild", s.rebuildIndexHandler).Methods("POST")

	var handler http.Handler = r
	if s.cfg.Auth.JWTSecret != "" {
		handler = s.jwtMiddleware(handler)
	}
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// invalidate marks cached state for a container stale after a mutation. The
// search index is always marked; the listing cache only when the accessor
// carries one.
func (s *Server) invalidate(containerName string) {
	if cached, ok := s.accessor.(*storage.CachedAccessor); ok {
		cached.Invalidate(containerName)
	}
	s.search.Index().Invalidate()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps a storage error onto an HTTP response, preserving the
// backend's status and error code when present.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := storage.StatusCode(err)
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if storage.IsNotFound(err) {
		status = http.StatusNotFound
	}

	requestID := requestIDFrom(r.Context())
	s.log.ErrorWithCode(requestID, "request failed", status, err, map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
	})
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		Code:      storage.ErrorCode(err),
		RequestID: requestID,
	})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:     message,
		RequestID: requestIDFrom(r.Context()),
	})
}
