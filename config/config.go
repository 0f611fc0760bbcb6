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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full console configuration.
type Config struct {
	Port    string        `yaml:"port"`
	Account AccountConfig `yaml:"account"`
	Cache   CacheConfig   `yaml:"cache"`
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Auth    AuthConfig    `yaml:"auth"`
	CORS    CORSConfig    `yaml:"cors"`
}

// AccountConfig selects the storage account and exactly one auth method:
// a shared key (Name+Key), a connection string, or the ambient Azure
// credential chain (Name+UseDefaultCredential).
type AccountConfig struct {
	Name                 string `yaml:"name"`
	Key                  string `yaml:"key"`
	ConnectionString     string `yaml:"connection_string"`
	UseDefaultCredential bool   `yaml:"use_default_credential"`
}

// CacheConfig tunes the listing cache in front of the storage accessor.
// RedisURL switches the backend from in-process to Redis.
type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	RedisURL string        `yaml:"redis_url"`
}

// IndexConfig tunes the search index rebuild lifecycle.
type IndexConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	FanoutLimit int           `yaml:"fanout_limit"`
}

// SearchConfig tunes result limits.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// AuthConfig enables optional bearer-token auth when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// CORSConfig lists allowed origins; empty means allow all.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Defaults returns the built-in configuration before file and env overrides.
func Defaults() Config {
	return Config{
		Port: "8080",
		Cache: CacheConfig{
			TTL: 2 * time.Minute,
		},
		Index: IndexConfig{
			TTL:         5 * time.Minute,
			FanoutLimit: 8,
		},
		Search: SearchConfig{
			DefaultLimit: 50,
			MaxLimit:     500,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONSOLE_CONFIG (when set), then environment variables. The result is
// validated before being returned.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONSOLE_CONFIG"); path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg. Unset variables leave the
// existing value alone.
func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Account.Name, "AZURE_STORAGE_ACCOUNT")
	setString(&cfg.Account.Key, "AZURE_STORAGE_KEY")
	setString(&cfg.Account.ConnectionString, "AZURE_STORAGE_CONNECTION_STRING")
	setBool(&cfg.Account.UseDefaultCredential, "AZURE_USE_DEFAULT_CREDENTIAL")
	setDuration(&cfg.Cache.TTL, "CACHE_TTL")
	setString(&cfg.Cache.RedisURL, "REDIS_URL")
	setDuration(&cfg.Index.TTL, "INDEX_TTL")
	setInt(&cfg.Index.FanoutLimit, "INDEX_FANOUT")
	setInt(&cfg.Search.DefaultLimit, "SEARCH_DEFAULT_LIMIT")
	setInt(&cfg.Search.MaxLimit, "SEARCH_MAX_LIMIT")
	setString(&cfg.Auth.JWTSecret, "CONSOLE_JWT_SECRET")

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		cfg.CORS.AllowedOrigins = cfg.CORS.AllowedOrigins[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, p)
			}
		}
	}
}

// Validate checks that exactly one storage auth method is configured and that
// numeric tunables are sane.
func (c Config) Validate() error {
	methods := 0
	if c.Account.ConnectionString != "" {
		methods++
	}
	if c.Account.Name != "" && c.Account.Key != "" {
		methods++
	}
	if c.Account.UseDefaultCredential {
		if c.Account.Name == "" {
			return fmt.Errorf("AZURE_USE_DEFAULT_CREDENTIAL requires AZURE_STORAGE_ACCOUNT")
		}
		methods++
	}
	if methods == 0 {
		return fmt.Errorf("no storage auth configured: set AZURE_STORAGE_CONNECTION_STRING, or AZURE_STORAGE_ACCOUNT + AZURE_STORAGE_KEY, or AZURE_USE_DEFAULT_CREDENTIAL")
	}
	if methods > 1 {
		return fmt.Errorf("multiple storage auth methods configured: pick exactly one")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Index.TTL <= 0 {
		return fmt.Errorf("index TTL must be positive")
	}
	if c.Index.FanoutLimit <= 0 {
		return fmt.Errorf("index fan-out limit must be positive")
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit <= 0 {
		return fmt.Errorf("search limits must be positive")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search default limit %d exceeds max limit %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}
