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

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
)

var errTestFixture = errors.New("fixture error")

type published struct {
	subject string
	event   map[string]interface{}
}

type fakeJetStream struct {
	msgs []published
	err  error
	seq  uint64
}

func (f *fakeJetStream) Publish(
	_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt,
) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}

	var event map[string]interface{}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	f.seq++
	f.msgs = append(f.msgs, published{subject: subject, event: event})

	return &jetstream.PubAck{Stream: "CAMSHIM", Sequence: f.seq}, nil
}

func TestEventPublisher_Relay(t *testing.T) {
	js := &fakeJetStream{}
	p := NewEventPublisher(js, "camshim", logger.NewTestLogger())
	p.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, models.RelayEndpoints{
		StreamName:    "garage",
		RelayPath:     "/webrtc/garage",
		SignalingPath: "/signaling/garage?kvs",
	}))
	require.NoError(t, p.Withdraw(ctx, "garage"))

	require.Len(t, js.msgs, 2)

	first := js.msgs[0]
	assert.Equal(t, "camshim.relay.published", first.subject)
	assert.Equal(t, "1.0", first.event["specversion"])
	assert.Equal(t, typeRelayPublished, first.event["type"])
	assert.Equal(t, "garage", first.event["subject"])
	assert.NotEmpty(t, first.event["id"])

	data := first.event["data"].(map[string]interface{})
	assert.Equal(t, "/webrtc/garage", data["relay_path"])

	second := js.msgs[1]
	assert.Equal(t, "camshim.relay.withdrawn", second.subject)
	assert.Equal(t, "garage", second.event["data"].(map[string]interface{})["stream_name"])
	assert.NotEqual(t, first.event["id"], second.event["id"])
}

func TestEventPublisher_Attempt(t *testing.T) {
	js := &fakeJetStream{}
	p := NewEventPublisher(js, "camshim", logger.NewTestLogger())

	kind := models.ErrorKindTimeout
	code := -13

	p.RecordAttempt(context.Background(), models.AttemptRecord{
		StreamName: "den",
		DeviceID:   "D1",
		Decision:   models.DecisionDirectUnauthenticated,
		ErrorKind:  &kind,
		ErrorCode:  &code,
		DurationMs: 10000,
	})

	require.Len(t, js.msgs, 1)
	assert.Equal(t, "camshim.attempts", js.msgs[0].subject)

	data := js.msgs[0].event["data"].(map[string]interface{})
	assert.Equal(t, "timeout", data["error_kind"])
	assert.Equal(t, "direct_unauthenticated", data["transport_decision"])
	assert.InDelta(t, -13, data["error_code"], 0)
}

func TestEventPublisher_Errors(t *testing.T) {
	js := &fakeJetStream{err: errTestFixture}
	p := NewEventPublisher(js, "camshim", logger.NewTestLogger())

	require.ErrorIs(t, p.Publish(context.Background(), models.RelayEndpoints{StreamName: "x"}), errTestFixture)
	require.ErrorIs(t, p.Withdraw(context.Background(), "x"), errTestFixture)

	// attempt reporting swallows the error
	p.RecordAttempt(context.Background(), models.AttemptRecord{StreamName: "x"})
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, []string{"cam.relay.published", "cam.relay.withdrawn", "cam.attempts"}, Subjects("cam"))
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{"adds subject when list empty", nil, "camshim.attempts", []string{"camshim.attempts"}},
		{"keeps list when wildcard matches", []string{"camshim.*"}, "camshim.attempts", []string{"camshim.*"}},
		{"keeps list when greater wildcard matches", []string{"camshim.>"}, "camshim.relay.published", []string{"camshim.>"}},
		{
			"appends when unmatched",
			[]string{"events.syslog.*"},
			"camshim.attempts",
			[]string{"events.syslog.*", "camshim.attempts"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "camshim.relay.published", "camshim.relay.published", true},
		{"single wildcard", "camshim.*.published", "camshim.relay.published", true},
		{"greater wildcard", "camshim.>", "camshim.relay.published", true},
		{"greater needs a token", "camshim.>", "camshim", false},
		{"no match length", "camshim.*", "camshim.relay.published", false},
		{"no match tokens", "events.syslog.*", "camshim.relay.published", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := matchesSubject(tc.pattern, tc.subject); got != tc.expected {
				t.Fatalf("matchesSubject(%q, %q) = %t, want %t", tc.pattern, tc.subject, got, tc.expected)
			}
		})
	}
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"jetstream no stream response", jetstream.ErrNoStreamResponse, true},
		{"jetstream stream not found", jetstream.ErrStreamNotFound, true},
		{"nats no stream response", nats.ErrNoStreamResponse, true},
		{"nats stream not found", nats.ErrStreamNotFound, true},
		{"nats no responders", nats.ErrNoResponders, true},
		{"other error", errTestFixture, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := isStreamMissingErr(tc.err); got != tc.expected {
				t.Fatalf("isStreamMissingErr(%v) = %t, want %t", tc.err, got, tc.expected)
			}
		})
	}
}

func TestTLSConfig_RequiresMTLS(t *testing.T) {
	_, err := TLSConfig(nil)
	require.ErrorIs(t, err, ErrMTLSRequired)

	_, err = TLSConfig(&models.SecurityConfig{Mode: "none"})
	require.ErrorIs(t, err, ErrMTLSRequired)

	sec := &models.SecurityConfig{Mode: "mtls", CertDir: t.TempDir(), TLS: models.TLSConfig{CertFile: "c.pem"}}

	_, err = TLSConfig(sec)
	require.Error(t, err)
	assert.Equal(t, "c.pem", sec.TLS.CertFile, "the caller's config is left relative")
}
