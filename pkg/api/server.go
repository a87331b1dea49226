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

// Package api provides the HTTP and WebSocket API server for camview.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	cvhttp "github.com/carverauto/camview/pkg/http"
	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 1 << 20
)

var errInvalidCameraID = errors.New("invalid camera id")

// APIServer serves the camview API.
type APIServer struct {
	router     *mux.Router
	corsConfig models.CORSConfig
	logger     logger.Logger

	cameras    CameraService
	relay      StreamRelay
	capture    FrameCapturer
	settings   SettingsService
	vision     VisionService
	prober     FeedProber
	discoverer DeviceDiscoverer
}

// NewAPIServer creates a new API server instance with the given configuration
func NewAPIServer(config models.CORSConfig, log logger.Logger, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:     mux.NewRouter(),
		corsConfig: config,
		logger:     log,
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithCameras adds the camera registry to the API server
func WithCameras(c CameraService) func(server *APIServer) {
	return func(server *APIServer) {
		server.cameras = c
	}
}

// WithRelay adds the stream relay to the API server
func WithRelay(r StreamRelay) func(server *APIServer) {
	return func(server *APIServer) {
		server.relay = r
	}
}

// WithCapturer adds frame capture to the API server
func WithCapturer(c FrameCapturer) func(server *APIServer) {
	return func(server *APIServer) {
		server.capture = c
	}
}

// WithSettings adds the settings service to the API server
func WithSettings(s SettingsService) func(server *APIServer) {
	return func(server *APIServer) {
		server.settings = s
	}
}

// WithVision adds vision queries to the API server
func WithVision(v VisionService) func(server *APIServer) {
	return func(server *APIServer) {
		server.vision = v
	}
}

// WithProber adds feed probing to the API server
func WithProber(p FeedProber) func(server *APIServer) {
	return func(server *APIServer) {
		server.prober = p
	}
}

// WithDiscoverer adds ONVIF discovery to the API server
func WithDiscoverer(d DeviceDiscoverer) func(server *APIServer) {
	return func(server *APIServer) {
		server.discoverer = d
	}
}

func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return cvhttp.CommonMiddleware(next, s.corsConfig, s.logger)
	})

	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/cameras", s.listCameras).Methods(http.MethodGet)
	api.HandleFunc("/cameras", s.registerCamera).Methods(http.MethodPost)
	api.HandleFunc("/cameras/{id}", s.updateCamera).Methods(http.MethodPut)
	api.HandleFunc("/cameras/{id}", s.deleteCamera).Methods(http.MethodDelete)
	api.HandleFunc("/cameras/{id}/probe", s.probeCamera).Methods(http.MethodGet)
	api.HandleFunc("/cameras/{id}/snapshot", s.snapshotCamera).Methods(http.MethodGet)

	api.HandleFunc("/stream/{id}", s.handleStream).Methods(http.MethodGet)
	api.HandleFunc("/streams", s.listStreams).Methods(http.MethodGet)

	api.HandleFunc("/onvif/discover", s.discoverDevices).Methods(http.MethodGet)
	api.HandleFunc("/onvif/control/{id}", s.controlCamera).Methods(http.MethodPost)

	api.HandleFunc("/settings", s.getSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/{key}", s.putSetting).Methods(http.MethodPut)

	api.HandleFunc("/ollama/query", s.handleVisionQuery).Methods(http.MethodPost)

	// preflight requests are answered by the middleware, but mux only runs
	// middleware for matched routes
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})
}

// Handler returns the root handler.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is canceled, then shuts down gracefully.
func (s *APIServer) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", addr).Msg("API server listening")

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (*APIServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("camview API is running\n"))
}

func cameraID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %w %q", models.ErrValidation, errInvalidCameraID, mux.Vars(r)["id"])
	}

	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", models.ErrValidation, err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(data)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUpstreamConnection), errors.Is(err, models.ErrSubprocess):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	event := s.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = s.logger.Error()
	}

	event.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg("request failed")

	writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
}

func (s *APIServer) unavailable(w http.ResponseWriter, r *http.Request, what string) {
	s.writeError(w, r, fmt.Errorf("%w: %s is not configured", models.ErrConfiguration, what))
}
