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

//go:generate mockgen -destination=mock_stream.go -package=stream github.com/carverauto/camshim/pkg/stream RelayPublisher,Attempter,Decider

package stream

import (
	"context"

	"github.com/carverauto/camshim/pkg/models"
	"github.com/carverauto/camshim/pkg/session"
)

// RelayPublisher makes a relay-only stream's routes reachable, and withdraws
// them when the stream stops. Calls may block on a broker ack; the
// coordinator never makes them while holding its state lock.
type RelayPublisher interface {
	Publish(ctx context.Context, endpoints models.RelayEndpoints) error
	Withdraw(ctx context.Context, streamName string) error
}

// Attempter runs one direct connection attempt. *session.Manager implements it.
type Attempter interface {
	Attempt(
		ctx context.Context,
		req session.AttemptRequest,
		connector session.Connector,
	) (models.AttemptOutcome, session.Session, error)
}

// Decider classifies a device. *transport.CachedSelector implements it.
type Decider interface {
	Decide(deviceID string, profile models.DeviceProfile) models.TransportDecision
}

// TransitionFunc observes state changes. It runs while the coordinator's lock
// is held and must not call back into the coordinator.
type TransitionFunc func(streamName string, from, to models.StreamState)

var (
	_ Attempter = (*session.Manager)(nil)
)
