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
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"blobportal/platform/config"
	"blobportal/platform/storage"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blobportal_console_requests_total",
			Help: "Total number of console HTTP requests",
		},
		[]string{"method", "status"},
	)
	promRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blobportal_console_request_duration_seconds",
			Help:    "Console HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	// Register Prometheus metrics
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
}

// Run is the exported entry point for the console service.
//
// It loads configuration, connects to the storage account, wires the listing
// cache and search service, and serves the HTTP API. The function blocks
// until the server exits.
//
// Environment variables used:
//   - PORT: HTTP server port (default: 8080)
//   - AZURE_STORAGE_ACCOUNT / AZURE_STORAGE_KEY: shared-key auth
//   - AZURE_STORAGE_CONNECTION_STRING: connection-string auth
//   - AZURE_USE_DEFAULT_CREDENTIAL: ambient Azure credential chain
//   - REDIS_URL: Redis listing cache (optional, in-process cache otherwise)
//   - CONSOLE_CONFIG: YAML config file path (optional)
//   - CONSOLE_JWT_SECRET: bearer-token auth (optional)
func Run() {
	log.Println("Starting BlobPortal console...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	azure, err := storage.NewAzureAccessor(ctx, storage.AzureConfig{
		AccountName:          cfg.Account.Name,
		AccountKey:           cfg.Account.Key,
		ConnectionString:     cfg.Account.ConnectionString,
		UseDefaultCredential: cfg.Account.UseDefaultCredential,
	})
	if err != nil {
		log.Fatalf("storage connection error: %v", err)
	}

	var cache storage.ListingCache
	if cfg.Cache.RedisURL != "" {
		redisCache, err := storage.NewRedisListingCache(cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			log.Fatalf("redis cache error: %v", err)
		}
		defer redisCache.Close()
		cache = redisCache
		log.Println("Listing cache: redis")
	} else {
		cache = storage.NewMemoryListingCache(cfg.Cache.TTL)
		log.Println("Listing cache: in-process")
	}

	server := NewServer(storage.NewCachedAccessor(azure, cache), cfg)

	allowedOrigins := cfg.CORS.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(server.Router())
	log.Printf("BlobPortal console listening on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
