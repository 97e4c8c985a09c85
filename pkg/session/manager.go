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

// Package session runs single direct-connection attempts and classifies
// their failures. It holds no per-device state: everything an attempt needs
// arrives in its ConnectionContext.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
)

const tracerName = "github.com/carverauto/camshim/pkg/session"

// authKeyLogPrefix is how much of a device auth key debug logs may show.
const authKeyLogPrefix = 8

// AttemptRequest describes one attempt.
type AttemptRequest struct {
	StreamName string
	Decision   models.TransportDecision
	Context    *models.ConnectionContext
}

// Manager drives connection attempts. It is safe for concurrent use and never
// retries.
type Manager struct {
	logger   logger.Logger
	codes    CodeTable
	recorder Recorder
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCodeTable replaces the default error code table.
func WithCodeTable(table CodeTable) Option {
	return func(m *Manager) {
		m.codes = table.With(nil)
	}
}

// WithRecorder sets where attempt records go in addition to the log.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger: log,
		codes:  DefaultCodeTable(),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

type connectResult struct {
	session Session
	err     error
}

// Attempt runs connector against req.Context, bounded by req.Context.Timeout.
//
// On success it returns the live session. On failure it returns a failed
// outcome and an *AttemptError wrapping the connector's error; the returned
// session is nil. Cancellation of ctx, or the deadline passing, is reported as
// a timeout. A connector that ignores its context is abandoned at the
// deadline and any session it later produces is closed.
func (m *Manager) Attempt(ctx context.Context, req AttemptRequest, connector Connector) (models.AttemptOutcome, Session, error) {
	if req.Context == nil {
		return models.AttemptOutcome{}, nil, ErrNoContext
	}

	if connector == nil {
		return models.AttemptOutcome{}, nil, ErrNoConnector
	}

	cc := req.Context
	start := m.now()

	ctx, span := m.tracer.Start(ctx, "session.attempt", trace.WithAttributes(
		attribute.String("stream.name", req.StreamName),
		attribute.String("device.id", cc.DeviceID),
		attribute.String("transport.decision", req.Decision.String()),
		attribute.Bool("transport.authenticated", cc.Authenticated()),
	))
	defer span.End()

	m.logAttemptStart(req)

	attemptCtx, cancel := context.WithTimeout(ctx, cc.Timeout)
	defer cancel()

	done := make(chan connectResult, 1)

	go func() {
		s, err := connector.Connect(attemptCtx, cc)
		done <- connectResult{session: s, err: err}
	}()

	var res connectResult

	select {
	case res = <-done:
	case <-attemptCtx.Done():
		select {
		case res = <-done:
		default:
			res = connectResult{err: attemptCtx.Err()}

			go reapLateSession(done)
		}
	}

	duration := m.now().Sub(start)

	if res.err == nil && res.session != nil {
		outcome := models.SuccessOutcome()
		m.report(ctx, req, outcome, duration, nil)
		span.SetStatus(codes.Ok, "")

		return outcome, res.session, nil
	}

	if res.session != nil {
		_ = res.session.Close()
	}

	if res.err == nil {
		res.err = errNilSession
	}

	kind, code := m.classify(attemptCtx, res.err)
	outcome := models.FailureOutcome(kind, code)
	m.report(ctx, req, outcome, duration, res.err)

	span.RecordError(res.err)
	span.SetStatus(codes.Error, kind.String())

	return outcome, nil, &AttemptError{
		StreamName: req.StreamName,
		Kind:       kind,
		Code:       code,
		Err:        res.err,
	}
}

var errNilSession = errors.New("connector returned no session")

// Classify maps an attempt error to its kind and, when the connector supplied
// one, its code.
func (m *Manager) Classify(err error) (models.ErrorKind, *int) {
	return m.classify(context.Background(), err)
}

func (m *Manager) classify(attemptCtx context.Context, err error) (models.ErrorKind, *int) {
	var ce *ConnectError
	if errors.As(err, &ce) {
		code := ce.Code

		return m.codes.Kind(code), &code
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || attemptCtx.Err() != nil {
		return models.ErrorKindTimeout, nil
	}

	return models.ErrorKindUnknown, nil
}

func reapLateSession(done <-chan connectResult) {
	if res := <-done; res.session != nil {
		_ = res.session.Close()
	}
}

func (m *Manager) logAttemptStart(req AttemptRequest) {
	if !m.logger.Enabled(zerolog.DebugLevel) {
		return
	}

	cc := req.Context

	m.logger.Debug().
		Str("stream", req.StreamName).
		Str("device_id", cc.DeviceID).
		Str("endpoint", cc.Endpoint).
		Str("transport_decision", req.Decision.String()).
		Bool("authenticated", cc.Authenticated()).
		Str("auth_key_prefix", cc.AuthOverride.KeyPrefix(authKeyLogPrefix)).
		Dur("timeout", cc.Timeout).
		Uint("channel_id", cc.ChannelID).
		Msg("Starting connection attempt")
}

func (m *Manager) report(
	ctx context.Context,
	req AttemptRequest,
	outcome models.AttemptOutcome,
	duration time.Duration,
	err error,
) {
	record := models.AttemptRecord{
		StreamName: req.StreamName,
		DeviceID:   req.Context.DeviceID,
		Decision:   req.Decision,
		Success:    outcome.Success,
		ErrorKind:  outcome.ErrorKind,
		ErrorCode:  outcome.ErrorCode,
		DurationMs: duration.Milliseconds(),
		Timestamp:  m.now(),
	}

	var event *zerolog.Event
	if outcome.Success {
		event = m.logger.Info()
	} else {
		event = m.logger.Error().Err(err)
	}

	event = event.
		Str("stream", record.StreamName).
		Str("device_id", record.DeviceID).
		Str("transport_decision", record.Decision.String()).
		Bool("success", record.Success).
		Int64("duration_ms", record.DurationMs)

	if record.ErrorKind != nil {
		event = event.Str("error_kind", record.ErrorKind.String())
	}

	if record.ErrorCode != nil {
		event = event.Int("error_code", *record.ErrorCode)
	}

	switch {
	case outcome.Success:
		event.Msg("Connection attempt succeeded")
	case record.ErrorCode != nil && *record.ErrorCode == CodeTimeout:
		event.Msg("Connection attempt timed out; camera may be unresponsive to this connection mode")
	default:
		event.Msg("Connection attempt failed")
	}

	if m.recorder != nil {
		m.recorder.RecordAttempt(ctx, record)
	}
}
