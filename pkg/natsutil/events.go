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

// Package natsutil publishes relay endpoint changes and connection attempt
// records as CloudEvents on NATS JetStream.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
)

const (
	eventSource      = "camshim/bridge"
	eventSpecVersion = "1.0"
	contentTypeJSON  = "application/json"

	typeRelayPublished = "com.carverauto.camshim.relay.published"
	typeRelayWithdrawn = "com.carverauto.camshim.relay.withdrawn"
	typeAttempt        = "com.carverauto.camshim.connection.attempt"
)

// Publisher is the part of jetstream.JetStream the EventPublisher needs.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventPublisher provides methods for publishing CloudEvents to NATS JetStream.
type EventPublisher struct {
	js     Publisher
	prefix string
	logger logger.Logger
	now    func() time.Time
}

// NewEventPublisher publishes under subjectPrefix, e.g. "camshim" gives
// camshim.relay.published, camshim.relay.withdrawn and camshim.attempts.
func NewEventPublisher(js Publisher, subjectPrefix string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:     js,
		prefix: subjectPrefix,
		logger: log,
		now:    time.Now,
	}
}

// Subjects returns every subject this publisher writes to.
func Subjects(prefix string) []string {
	return []string{
		prefix + ".relay.published",
		prefix + ".relay.withdrawn",
		prefix + ".attempts",
	}
}

// Publish announces a stream's relay endpoints.
func (p *EventPublisher) Publish(ctx context.Context, endpoints models.RelayEndpoints) error {
	return p.publish(ctx, typeRelayPublished, p.prefix+".relay.published", endpoints.StreamName, endpoints)
}

// Withdraw announces that a stream's relay endpoints are gone.
func (p *EventPublisher) Withdraw(ctx context.Context, streamName string) error {
	data := models.RelayWithdrawal{StreamName: streamName, Timestamp: p.now()}

	return p.publish(ctx, typeRelayWithdrawn, p.prefix+".relay.withdrawn", streamName, data)
}

// RecordAttempt publishes an attempt record. Failures are logged; attempt
// reporting never fails the attempt.
func (p *EventPublisher) RecordAttempt(ctx context.Context, record models.AttemptRecord) {
	if err := p.publish(ctx, typeAttempt, p.prefix+".attempts", record.StreamName, record); err != nil {
		p.logger.Warn().Err(err).Str("stream", record.StreamName).Msg("Failed to publish attempt record")
	}
}

func (p *EventPublisher) publish(ctx context.Context, eventType, subject, streamName string, data interface{}) error {
	ts := p.now()

	event := models.CloudEvent{
		SpecVersion:     eventSpecVersion,
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: contentTypeJSON,
		Subject:         streamName,
		Time:            &ts,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	ack, err := p.js.Publish(ctx, subject, payload, jetstream.WithMsgID(event.ID))
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Msg("Published event")

	return nil
}
