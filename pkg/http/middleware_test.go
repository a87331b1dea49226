/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

func TestCommonMiddlewareCORS(t *testing.T) {
	corsConfig := models.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
	}

	handler := CommonMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}), corsConfig, logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "http://evil.com")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "OK", rr.Body.String())
}

func TestCommonMiddlewarePreflight(t *testing.T) {
	called := false
	handler := CommonMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}), models.CORSConfig{AllowedOrigins: []string{"*"}}, logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodOptions, "/api/cameras", http.NoBody)
	req.Header.Set("Origin", "http://any.example")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, called)
	assert.Equal(t, "http://any.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestOriginAllowed(t *testing.T) {
	cfg := models.CORSConfig{AllowedOrigins: []string{"http://a"}}

	assert.True(t, OriginAllowed(cfg, ""))
	assert.True(t, OriginAllowed(cfg, "http://a"))
	assert.False(t, OriginAllowed(cfg, "http://b"))
}
