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
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadFile overlays a YAML configuration file onto cfg. Environment variable
// references in the file content are expanded before parsing, so secrets can
// stay out of the file itself.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string.
// Supports ${VAR_NAME}, $VAR_NAME, and ${VAR_NAME:-default} syntax; undefined
// variables without a default become empty strings.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultVal
	})
}

// ExampleConfigFile returns a commented sample configuration file.
func ExampleConfigFile() string {
	return `# BlobPortal console configuration
# Environment variables can be referenced using ${VAR_NAME} or ${VAR_NAME:-default}
# syntax. Environment variables override every value in this file.

port: "8080"

account:
  name: ${AZURE_STORAGE_ACCOUNT}
  key: ${AZURE_STORAGE_KEY}
  # connection_string: ${AZURE_STORAGE_CONNECTION_STRING}
  # use_default_credential: true

cache:
  ttl: 2m
  # redis_url: redis://localhost:6379/0

index:
  ttl: 5m
  fanout_limit: 8

search:
  default_limit: 50
  max_limit: 500

auth:
  # jwt_secret: ${CONSOLE_JWT_SECRET}

cors:
  allowed_origins:
    - "*"
`
}
