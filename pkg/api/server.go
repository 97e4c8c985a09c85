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

// Package api serves stream control and relay discovery over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	shimhttp "github.com/carverauto/camshim/pkg/http"
	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
	"github.com/carverauto/camshim/pkg/relay"
	"github.com/carverauto/camshim/pkg/stream"
)

const (
	defaultReadTimeout       = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// StreamService is what the API needs from the stream registry.
type StreamService interface {
	Snapshot() []models.StreamStatus
	Status(name string) (models.StreamStatus, error)
	Start(ctx context.Context, name string) (models.StartResult, error)
	Stop(ctx context.Context, name string) (models.StreamState, error)
}

// RelayView is what the API needs from the relay table.
type RelayView interface {
	List() []models.RelayEndpoints
	Get(streamName string) (models.RelayEndpoints, bool)
	Subscribe(buffer int) (<-chan relay.Event, func())
}

var (
	_ StreamService = (*stream.Registry)(nil)
	_ RelayView     = (*relay.Table)(nil)
)

// APIServer routes requests to the stream registry and relay table.
type APIServer struct {
	router       *mux.Router
	streams      StreamService
	relay        RelayView
	logger       logger.Logger
	corsConfig   models.CORSConfig
	apiKey       string
	pingInterval time.Duration

	mu     sync.Mutex
	server *http.Server
}

// NewAPIServer creates a new API server instance with the given configuration.
func NewAPIServer(cors models.CORSConfig, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:       mux.NewRouter(),
		corsConfig:   cors,
		logger:       logger.NewTestLogger(),
		pingInterval: 30 * time.Second,
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

func WithStreams(svc StreamService) func(*APIServer) {
	return func(s *APIServer) { s.streams = svc }
}

func WithRelay(view RelayView) func(*APIServer) {
	return func(s *APIServer) { s.relay = view }
}

func WithLogger(log logger.Logger) func(*APIServer) {
	return func(s *APIServer) { s.logger = log }
}

// WithAPIKey protects /api routes. The /api/relay routes stay public so
// players can look up and watch relay endpoints without the key.
func WithAPIKey(key string) func(*APIServer) {
	return func(s *APIServer) { s.apiKey = key }
}

//nolint:gochecknoglobals // fixed route table
var publicPaths = []string{"/api/relay", "/api/relay/"}

func (s *APIServer) setupRoutes() {
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	protected := s.router.PathPrefix("/api").Subrouter()
	protected.Use(shimhttp.APIKeyMiddlewareWithOptions(shimhttp.APIKeyOptions{
		APIKey:          s.apiKey,
		ExcludePaths:    publicPaths,
		LogUnauthorized: true,
		Logger:          s.logger,
	}))

	protected.HandleFunc("/streams", s.getStreams).Methods(http.MethodGet)
	protected.HandleFunc("/streams/{name}", s.getStream).Methods(http.MethodGet)
	protected.HandleFunc("/streams/{name}/start", s.startStream).Methods(http.MethodPost)
	protected.HandleFunc("/streams/{name}/stop", s.stopStream).Methods(http.MethodPost)
	protected.HandleFunc("/relay", s.getRelays).Methods(http.MethodGet)
	protected.HandleFunc("/relay/watch", s.handleRelayWatch).Methods(http.MethodGet)
	protected.HandleFunc("/relay/{name}", s.getRelay).Methods(http.MethodGet)
}

// Handler returns the root handler. CORS wraps the router so preflight
// requests are answered before method matching.
func (s *APIServer) Handler() http.Handler {
	return shimhttp.CommonMiddleware(s.router, s.corsConfig, s.logger)
}

// Start serves on addr until Shutdown. It returns nil after a clean shutdown.
func (s *APIServer) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       defaultReadTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, ErrorResponse{Message: message, Status: status})
}
