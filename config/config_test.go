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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearConsoleEnv unsets every variable Load reads so tests do not inherit
// state from the machine running them.
func clearConsoleEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONSOLE_CONFIG", "PORT",
		"AZURE_STORAGE_ACCOUNT", "AZURE_STORAGE_KEY",
		"AZURE_STORAGE_CONNECTION_STRING", "AZURE_USE_DEFAULT_CREDENTIAL",
		"CACHE_TTL", "REDIS_URL", "INDEX_TTL", "INDEX_FANOUT",
		"SEARCH_DEFAULT_LIMIT", "SEARCH_MAX_LIMIT",
		"CONSOLE_JWT_SECRET", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromEnvSharedKey(t *testing.T) {
	clearConsoleEnv(t)
	t.Setenv("AZURE_STORAGE_ACCOUNT", "myaccount")
	t.Setenv("AZURE_STORAGE_KEY", "c2VjcmV0")
	t.Setenv("PORT", "9090")
	t.Setenv("INDEX_TTL", "90s")
	t.Setenv("INDEX_FANOUT", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "myaccount", cfg.Account.Name)
	assert.Equal(t, 90*time.Second, cfg.Index.TTL)
	assert.Equal(t, 4, cfg.Index.FanoutLimit)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL, "untouched values keep defaults")
}

func TestLoadRequiresAuth(t *testing.T) {
	clearConsoleEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no storage auth configured")
}

func TestLoadRejectsMultipleAuthMethods(t *testing.T) {
	clearConsoleEnv(t)
	t.Setenv("AZURE_STORAGE_ACCOUNT", "myaccount")
	t.Setenv("AZURE_STORAGE_KEY", "c2VjcmV0")
	t.Setenv("AZURE_STORAGE_CONNECTION_STRING", "DefaultEndpointsProtocol=https;AccountName=x;AccountKey=y;EndpointSuffix=core.windows.net")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple storage auth methods")
}

func TestLoadDefaultCredentialNeedsAccountName(t *testing.T) {
	clearConsoleEnv(t)
	t.Setenv("AZURE_USE_DEFAULT_CREDENTIAL", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires AZURE_STORAGE_ACCOUNT")
}

func TestLoadFromYAMLFile(t *testing.T) {
	clearConsoleEnv(t)

	path := filepath.Join(t.TempDir(), "console.yaml")
	content := `port: "7070"
account:
  connection_string: "DefaultEndpointsProtocol=https;AccountName=filed;AccountKey=aaa;EndpointSuffix=core.windows.net"
cache:
  ttl: 30s
search:
  default_limit: 25
  max_limit: 100
cors:
  allowed_origins:
    - "https://console.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONSOLE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 25, cfg.Search.DefaultLimit)
	assert.Equal(t, []string{"https://console.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestEnvOverridesFile(t *testing.T) {
	clearConsoleEnv(t)

	path := filepath.Join(t.TempDir(), "console.yaml")
	content := `port: "7070"
account:
  connection_string: "DefaultEndpointsProtocol=https;AccountName=filed;AccountKey=aaa;EndpointSuffix=core.windows.net"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONSOLE_CONFIG", path)
	t.Setenv("PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port, "environment wins over the file")
}

func TestFileExpandsEnvVars(t *testing.T) {
	clearConsoleEnv(t)
	t.Setenv("TEST_CONN", "DefaultEndpointsProtocol=https;AccountName=envy;AccountKey=bbb;EndpointSuffix=core.windows.net")

	path := filepath.Join(t.TempDir(), "console.yaml")
	content := `account:
  connection_string: "${TEST_CONN}"
port: "${TEST_PORT:-6060}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONSOLE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.Account.ConnectionString, "AccountName=envy")
	assert.Equal(t, "6060", cfg.Port, "${VAR:-default} falls back when VAR is unset")
}

func TestLoadMissingFileFails(t *testing.T) {
	clearConsoleEnv(t)
	t.Setenv("CONSOLE_CONFIG", "/nonexistent/console.yaml")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateLimits(t *testing.T) {
	cfg := Defaults()
	cfg.Account.ConnectionString = "DefaultEndpointsProtocol=https;AccountName=x;AccountKey=y;EndpointSuffix=core.windows.net"

	cfg.Search.DefaultLimit = 1000
	cfg.Search.MaxLimit = 500
	require.Error(t, cfg.Validate())

	cfg.Search.DefaultLimit = 50
	require.NoError(t, cfg.Validate())
}

func TestExampleConfigFileParses(t *testing.T) {
	clearConsoleEnv(t)
	t.Setenv("AZURE_STORAGE_ACCOUNT", "sample")
	t.Setenv("AZURE_STORAGE_KEY", "c2VjcmV0")

	path := filepath.Join(t.TempDir(), "example.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ExampleConfigFile()), 0o600))
	t.Setenv("CONSOLE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sample", cfg.Account.Name)
}
