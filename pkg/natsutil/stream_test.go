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
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
)

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, func() bool {
		return srv.JetStreamEnabled()
	}, 5*time.Second, 50*time.Millisecond, "embedded NATS server not ready for JetStream")

	t.Cleanup(srv.Shutdown)

	return srv
}

func connectJetStream(t *testing.T, srv *server.Server) jetstream.JetStream {
	t.Helper()

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	return js
}

type receivedEvent struct {
	Type    string          `json:"type"`
	Subject string          `json:"subject"`
	ID      string          `json:"id"`
	Data    json.RawMessage `json:"data"`
}

func lastEvent(ctx context.Context, t *testing.T, stream jetstream.Stream, subject string) receivedEvent {
	t.Helper()

	msg, err := stream.GetLastMsgForSubject(ctx, subject)
	require.NoError(t, err, subject)

	var ev receivedEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))

	return ev
}

func TestConnect_CreatesStreamAndPublishes(t *testing.T) {
	srv := runJetStreamServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := &models.NATSConfig{Enabled: true, URL: srv.ClientURL(), Stream: "CAMSHIM", Subject: "camshim"}

	pub, nc, err := Connect(ctx, cfg, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js := connectJetStream(t, srv)

	stream, err := js.Stream(ctx, "CAMSHIM")
	require.NoError(t, err)
	assert.ElementsMatch(t, Subjects("camshim"), stream.CachedInfo().Config.Subjects)

	require.NoError(t, pub.Publish(ctx, models.RelayEndpoints{
		StreamName:    "garage",
		RelayPath:     "/webrtc/garage",
		SignalingPath: "/signaling/garage?kvs",
	}))
	require.NoError(t, pub.Withdraw(ctx, "garage"))
	pub.RecordAttempt(ctx, models.AttemptRecord{StreamName: "porch", DeviceID: "D3", Success: true, DurationMs: 12})

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.State.Msgs)

	published := lastEvent(ctx, t, stream, "camshim.relay.published")
	assert.Equal(t, typeRelayPublished, published.Type)
	assert.Equal(t, "garage", published.Subject)

	var endpoints models.RelayEndpoints
	require.NoError(t, json.Unmarshal(published.Data, &endpoints))
	assert.Equal(t, "/signaling/garage?kvs", endpoints.SignalingPath)

	withdrawn := lastEvent(ctx, t, stream, "camshim.relay.withdrawn")
	assert.Equal(t, typeRelayWithdrawn, withdrawn.Type)

	var withdrawal models.RelayWithdrawal
	require.NoError(t, json.Unmarshal(withdrawn.Data, &withdrawal))
	assert.Equal(t, "garage", withdrawal.StreamName)

	attempt := lastEvent(ctx, t, stream, "camshim.attempts")
	assert.Equal(t, typeAttempt, attempt.Type)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(attempt.Data, &record))
	assert.Equal(t, "D3", record["device_id"])
	assert.Equal(t, true, record["success"])
	assert.InDelta(t, 12, record["duration_ms"], 0)
}

func TestEnsureStream_WidensNarrowerSubjects(t *testing.T) {
	srv := runJetStreamServer(t)
	js := connectJetStream(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     "CAMSHIM",
		Subjects: []string{"camshim.relay.published"},
	})
	require.NoError(t, err)

	require.NoError(t, EnsureStream(ctx, js, "CAMSHIM", Subjects("camshim")))

	stream, err := js.Stream(ctx, "CAMSHIM")
	require.NoError(t, err)
	assert.ElementsMatch(t, Subjects("camshim"), stream.CachedInfo().Config.Subjects)
}

func TestEnsureStream_WildcardAlreadyCovers(t *testing.T) {
	srv := runJetStreamServer(t)
	js := connectJetStream(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{Name: "EVENTS", Subjects: []string{"camshim.>"}})
	require.NoError(t, err)

	require.NoError(t, EnsureStream(ctx, js, "EVENTS", Subjects("camshim")))

	stream, err := js.Stream(ctx, "EVENTS")
	require.NoError(t, err)
	assert.Equal(t, []string{"camshim.>"}, stream.CachedInfo().Config.Subjects)
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := &models.NATSConfig{Enabled: true, URL: "nats://127.0.0.1:1", Stream: "CAMSHIM", Subject: "camshim"}

	_, _, err := Connect(context.Background(), cfg, logger.NewTestLogger())
	require.Error(t, err)
}
