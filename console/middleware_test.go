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
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blobportal/platform/storage"
)

func newAuthServer(t *testing.T, secret string) *Server {
	t.Helper()
	cfg := testConfig()
	cfg.Auth.JWTSecret = secret
	return NewServer(storage.NewFakeAccessor([]string{"docs"}, nil), cfg)
}

func signToken(t *testing.T, secret string, expiry time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "console-test",
		"exp": time.Now().Add(expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTMissingTokenRejected(t *testing.T) {
	srv := newAuthServer(t, "topsecret")

	rec := doRequest(t, srv, "GET", "/api/v1/containers", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTValidTokenAccepted(t *testing.T) {
	srv := newAuthServer(t, "topsecret")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+signToken(t, "topsecret", time.Hour))
	rec := doRequest(t, srv, "GET", "/api/v1/containers", nil, header)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTWrongSecretRejected(t *testing.T) {
	srv := newAuthServer(t, "topsecret")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+signToken(t, "othersecret", time.Hour))
	rec := doRequest(t, srv, "GET", "/api/v1/containers", nil, header)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTExpiredTokenRejected(t *testing.T) {
	srv := newAuthServer(t, "topsecret")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+signToken(t, "topsecret", -time.Hour))
	rec := doRequest(t, srv, "GET", "/api/v1/containers", nil, header)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTHealthStaysOpen(t *testing.T) {
	srv := newAuthServer(t, "topsecret")

	rec := doRequest(t, srv, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTDisabledWhenNoSecret(t *testing.T) {
	srv := newTestServer(t, storage.NewFakeAccessor([]string{"docs"}, nil))

	rec := doRequest(t, srv, "GET", "/api/v1/containers", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
