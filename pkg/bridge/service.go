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

package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/camshim/pkg/api"
	"github.com/carverauto/camshim/pkg/connector/rtsp"
	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/natsutil"
	"github.com/carverauto/camshim/pkg/relay"
	"github.com/carverauto/camshim/pkg/session"
	"github.com/carverauto/camshim/pkg/stream"
	"github.com/carverauto/camshim/pkg/transport"
)

var (
	errConfigRequired = errors.New("config is required")
	errAlreadyStarted = errors.New("service already started")
)

// Service runs the camera bridge: it owns one coordinator per configured
// device, the relay table and the HTTP API.
type Service struct {
	cfg       *Config
	logger    logger.Logger
	connector session.Connector
	serveAPI  bool

	selector *transport.CachedSelector
	relay    *relay.Table
	registry *stream.Registry
	api      *api.APIServer

	mu      sync.Mutex
	started bool
	nc      *nats.Conn
	apiDone chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithConnector replaces the RTSP connector used for direct attempts.
func WithConnector(c session.Connector) Option {
	return func(s *Service) {
		s.connector = c
	}
}

// WithoutListener keeps the API off the network; Handler still serves it.
func WithoutListener() Option {
	return func(s *Service) {
		s.serveAPI = false
	}
}

// NewService validates cfg and builds the service. Nothing is dialled until
// Start.
func NewService(cfg *Config, log logger.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	s := &Service{
		cfg:      cfg,
		logger:   log,
		serveAPI: true,
		selector: transport.NewCachedSelector(transport.NewSelector(cfg.AffectedModelIDs())),
		relay:    relay.NewTable(log),
		registry: stream.NewRegistry(log, cfg.StartConcurrency),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.connector == nil {
		s.connector = rtsp.NewConnector(log)
	}

	s.api = api.NewAPIServer(cfg.CORS,
		api.WithStreams(s.registry),
		api.WithRelay(s.relay),
		api.WithLogger(log),
		api.WithAPIKey(cfg.APIKey),
	)

	return s, nil
}

// Start connects NATS when enabled, registers a coordinator per device,
// serves the API and, with autostart, starts every stream.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errAlreadyStarted
	}

	recorders := session.Recorders{session.MetricsRecorder{}}
	publishers := relay.Fanout{s.relay}

	if s.cfg.NATS != nil && s.cfg.NATS.Enabled {
		events, nc, err := natsutil.Connect(ctx, s.cfg.NATS, s.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}

		s.nc = nc
		recorders = append(recorders, events)
		publishers = append(publishers, events)

		s.logger.Info().Str("url", s.cfg.NATS.URL).Str("stream", s.cfg.NATS.Stream).Msg("Publishing events to NATS")
	}

	overrides, err := s.cfg.codeOverrides()
	if err != nil {
		s.closeNATS()

		return err
	}

	manager := session.NewManager(s.logger,
		session.WithCodeTable(session.DefaultCodeTable().With(overrides)),
		session.WithRecorder(recorders),
	)

	deps := stream.Dependencies{
		Decider:   s.selector,
		Attempter: manager,
		Connector: s.connector,
		Relay:     publishers,
		Logger:    s.logger,
	}

	if err := s.registerDevices(deps); err != nil {
		s.closeNATS()

		return err
	}

	if s.serveAPI {
		s.apiDone = make(chan struct{})

		go func(done chan struct{}) {
			defer close(done)

			if err := s.api.Start(s.cfg.ListenAddr); err != nil {
				s.logger.Error().Err(err).Str("addr", s.cfg.ListenAddr).Msg("API server stopped")
			}
		}(s.apiDone)
	}

	s.started = true

	if s.cfg.Autostart {
		s.autostart(ctx)
	}

	return nil
}

func (s *Service) registerDevices(deps stream.Dependencies) error {
	params := s.cfg.Params()

	for i := range s.cfg.Devices {
		desc := s.cfg.Descriptor(&s.cfg.Devices[i])

		c, err := stream.NewCoordinator(desc, params, deps, stream.WithICEServers(s.cfg.Relay.ICEServers))
		if err != nil {
			return err
		}

		if err := s.registry.Register(c); err != nil {
			return err
		}
	}

	s.logger.Info().Int("streams", len(s.cfg.Devices)).Msg("Registered camera streams")

	return nil
}

// autostart starts every stream. Failed streams stay FAILED and can be
// started again over the API.
func (s *Service) autostart(ctx context.Context) {
	results, err := s.registry.StartAll(ctx)

	for name, res := range results {
		s.logger.Info().Str("stream", name).Str("state", res.State.String()).Msg("Stream autostarted")
	}

	if err != nil {
		s.logger.Warn().Err(err).Msg("Some streams failed to start")
	}
}

// Stop shuts the API down, stops every stream and drains NATS.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.started = false

	var errs []error

	if s.serveAPI {
		if err := s.api.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api shutdown: %w", err))
		}

		select {
		case <-s.apiDone:
		case <-ctx.Done():
		}
	}

	if err := s.registry.StopAll(ctx); err != nil {
		errs = append(errs, err)
	}

	for _, st := range s.registry.Snapshot() {
		if err := s.registry.Deregister(ctx, st.Name); err != nil && !errors.Is(err, stream.ErrStreamNotFound) {
			errs = append(errs, err)
		}

		s.selector.Forget(st.DeviceID)
	}

	s.closeNATS()

	return errors.Join(errs...)
}

func (s *Service) closeNATS() {
	if s.nc == nil {
		return
	}

	if err := s.nc.Drain(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to drain NATS connection")
		s.nc.Close()
	}

	s.nc = nil
}

// Handler serves the HTTP API.
func (s *Service) Handler() http.Handler {
	return s.api.Handler()
}

// Registry exposes the stream registry.
func (s *Service) Registry() *stream.Registry {
	return s.registry
}

// Relay exposes the relay endpoint table.
func (s *Service) Relay() *relay.Table {
	return s.relay
}
