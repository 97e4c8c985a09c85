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

// Package stream owns the lifecycle of camera streams: it decides per start
// whether a stream goes direct or relay-only, drives the direct attempt and
// tears down whatever the stream holds on stop.
package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
	"github.com/carverauto/camshim/pkg/relay"
	"github.com/carverauto/camshim/pkg/session"
	"github.com/carverauto/camshim/pkg/transport"
)

// Dependencies are the collaborators a Coordinator needs.
type Dependencies struct {
	Decider   Decider
	Attempter Attempter
	Connector session.Connector
	Relay     RelayPublisher
	Logger    logger.Logger
}

func (d Dependencies) validate() error {
	switch {
	case d.Decider == nil:
		return fmt.Errorf("%w: decider", ErrMissingDep)
	case d.Attempter == nil:
		return fmt.Errorf("%w: attempter", ErrMissingDep)
	case d.Connector == nil:
		return fmt.Errorf("%w: connector", ErrMissingDep)
	case d.Relay == nil:
		return fmt.Errorf("%w: relay publisher", ErrMissingDep)
	case d.Logger == nil:
		return fmt.Errorf("%w: logger", ErrMissingDep)
	}

	return nil
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTransitionListener registers fn to observe every state change.
func WithTransitionListener(fn TransitionFunc) Option {
	return func(c *Coordinator) {
		c.listeners = append(c.listeners, fn)
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithICEServers sets the ICE servers advertised with relay endpoints.
func WithICEServers(servers []webrtc.ICEServer) Option {
	return func(c *Coordinator) {
		c.iceServers = append([]webrtc.ICEServer(nil), servers...)
	}
}

// Coordinator is the state machine of one stream. Calls on the same
// coordinator are serialised; coordinators share no mutable state.
type Coordinator struct {
	name       string
	desc       models.Descriptor
	params     transport.Params
	iceServers []webrtc.ICEServer

	decider   Decider
	attempter Attempter
	connector session.Connector
	relay     RelayPublisher
	logger    zerolog.Logger
	listeners []TransitionFunc
	now       func() time.Time

	// relayMu orders relay publish and withdraw calls. It is taken before mu
	// and is never held across a connection attempt.
	relayMu sync.Mutex

	mu          sync.Mutex
	state       models.StreamState
	decision    models.TransportDecision
	decided     bool
	session     session.Session
	cancel      context.CancelFunc
	generation  uint64
	lastOutcome *models.AttemptOutcome
	endpoints   *models.RelayEndpoints
	updatedAt   time.Time
}

// NewCoordinator returns a STOPPED coordinator for desc. The stream is named
// after desc.Name, or after desc.Nickname when no name is set.
func NewCoordinator(
	desc models.Descriptor,
	params transport.Params,
	deps Dependencies,
	opts ...Option,
) (*Coordinator, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	name := desc.Name
	if name == "" {
		name = relay.NameURI(desc.Nickname)
	}

	if name == "" {
		return nil, fmt.Errorf("%w: device %q", ErrNoStreamName, desc.DeviceID)
	}

	desc.Name = name

	if desc.Auth != nil {
		auth := *desc.Auth
		desc.Auth = &auth
	}

	c := &Coordinator{
		name:      name,
		desc:      desc,
		params:    params,
		decider:   deps.Decider,
		attempter: deps.Attempter,
		connector: deps.Connector,
		relay:     deps.Relay,
		logger: deps.Logger.WithFields(map[string]interface{}{
			"component": "stream",
			"stream":    name,
			"device_id": desc.DeviceID,
		}),
		now:   time.Now,
		state: models.StreamStopped,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.updatedAt = c.now()

	return c, nil
}

func (c *Coordinator) Name() string {
	return c.name
}

// State returns the current state.
func (c *Coordinator) State() models.StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Status returns a snapshot of the stream.
func (c *Coordinator) Status() models.StreamStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := models.StreamStatus{
		Name:        c.name,
		DeviceID:    c.desc.DeviceID,
		ModelID:     c.desc.Profile.ModelID,
		FirmwareEra: c.desc.Profile.FirmwareEra,
		Decision:    c.decision,
		State:       c.state,
		UpdatedAt:   c.updatedAt,
	}

	if !c.decided {
		st.Decision = c.decider.Decide(c.desc.DeviceID, c.desc.Profile)
	}

	if c.lastOutcome != nil {
		o := *c.lastOutcome
		st.LastOutcome = &o
	}

	if c.endpoints != nil {
		e := *c.endpoints
		st.Relay = &e
	}

	return st
}

// Start begins the stream. It is valid from STOPPED and FAILED; from any
// other state it does nothing and reports the current state.
//
// A relay-only device publishes its relay endpoints and moves to RELAY_ONLY
// without touching the direct backend. Any other device moves to CONNECTING
// for one attempt and ends RUNNING or FAILED; a failed attempt is returned as
// the error. Nothing is retried.
func (c *Coordinator) Start(ctx context.Context) (models.StartResult, error) {
	c.relayMu.Lock()
	c.mu.Lock()

	if !c.state.CanStart() {
		res := c.resultLocked()
		c.mu.Unlock()
		c.relayMu.Unlock()

		c.logger.Debug().Str("state", res.State.String()).Msg("Ignoring start")

		return res, nil
	}

	decision := c.decider.Decide(c.desc.DeviceID, c.desc.Profile)
	c.decision = decision
	c.decided = true
	c.lastOutcome = nil

	if decision == models.DecisionRelayOnly {
		defer c.relayMu.Unlock()

		return c.startRelay(ctx), nil
	}

	c.relayMu.Unlock()

	cc, err := transport.BuildContext(decision, &c.desc, c.params)
	if err != nil {
		outcome := models.FailureOutcome(models.ErrorKindUnknown, nil)
		c.lastOutcome = &outcome
		c.transitionLocked(models.StreamFailed)
		res := c.resultLocked()
		c.mu.Unlock()

		return res, err
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.generation++
	gen := c.generation
	c.transitionLocked(models.StreamConnecting)
	c.mu.Unlock()

	outcome, sess, err := c.attempter.Attempt(attemptCtx, session.AttemptRequest{
		StreamName: c.name,
		Decision:   decision,
		Context:    cc,
	}, c.connector)

	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen || c.state != models.StreamConnecting {
		if sess != nil {
			c.closeSession(sess)
		}

		if c.generation == gen {
			c.lastOutcome = &outcome
		}

		c.logger.Info().Str("state", c.state.String()).Msg("Stream stopped during connection attempt")

		res := c.resultLocked()
		res.Outcome = &outcome

		return res, err
	}

	c.cancel = nil
	c.lastOutcome = &outcome

	if err != nil || sess == nil {
		c.transitionLocked(models.StreamFailed)

		return c.resultLocked(), err
	}

	c.session = sess
	c.transitionLocked(models.StreamRunning)

	return c.resultLocked(), nil
}

// startRelay commits RELAY_ONLY and then publishes the endpoints. It is
// entered with relayMu and mu held and returns with only relayMu held, so
// readers of the state never wait on the publisher.
func (c *Coordinator) startRelay(ctx context.Context) models.StartResult {
	endpoints := relay.EndpointsFor(c.name, c.iceServers)
	c.endpoints = &endpoints
	c.transitionLocked(models.StreamRelayOnly)
	res := c.resultLocked()
	c.mu.Unlock()

	if err := c.relay.Publish(ctx, endpoints); err != nil {
		c.logger.Error().Err(err).Msg("Failed to publish relay endpoints")
	}

	c.logger.Info().
		Str("relay_path", endpoints.RelayPath).
		Str("signaling_path", endpoints.SignalingPath).
		Msg("Device firmware does not support the direct path; serving stream via relay only")

	return res
}

// Stop returns the stream to STOPPED from any state. An in-flight attempt is
// cancelled, a running session is closed and relay endpoints are withdrawn.
// Stopping a stopped stream does nothing. The stream is STOPPED even when
// teardown reports an error.
func (c *Coordinator) Stop(ctx context.Context) (models.StreamState, error) {
	c.relayMu.Lock()
	defer c.relayMu.Unlock()

	c.mu.Lock()

	var (
		sess     session.Session
		withdraw bool
	)

	switch c.state {
	case models.StreamStopped:
		c.mu.Unlock()

		return models.StreamStopped, nil
	case models.StreamConnecting:
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
	case models.StreamRunning:
		sess = c.session
		c.session = nil
	case models.StreamRelayOnly:
		withdraw = true
		c.endpoints = nil
	case models.StreamFailed:
	}

	c.transitionLocked(models.StreamStopped)
	c.mu.Unlock()

	var err error

	if sess != nil {
		if cerr := sess.Close(); cerr != nil {
			err = fmt.Errorf("%w: %w", errCloseSession, cerr)
		}
	}

	if withdraw {
		if werr := c.relay.Withdraw(ctx, c.name); werr != nil {
			err = fmt.Errorf("%w: %w", errWithdrawRelay, werr)
		}
	}

	if err != nil {
		c.logger.Warn().Err(err).Msg("Stream stopped with teardown error")
	}

	return models.StreamStopped, err
}

func (c *Coordinator) closeSession(sess session.Session) {
	if err := sess.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close session")
	}
}

func (c *Coordinator) resultLocked() models.StartResult {
	res := models.StartResult{State: c.state}

	if c.lastOutcome != nil {
		o := *c.lastOutcome
		res.Outcome = &o
	}

	if c.endpoints != nil {
		e := *c.endpoints
		res.Relay = &e
	}

	return res
}

func (c *Coordinator) transitionLocked(to models.StreamState) {
	from := c.state
	c.state = to
	c.updatedAt = c.now()

	recordTransition(c.name, from, to)

	c.logger.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Str("transport_decision", c.decision.String()).
		Msg("Stream state changed")

	for _, fn := range c.listeners {
		fn(c.name, from, to)
	}
}
