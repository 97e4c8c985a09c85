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

package models

import (
	"encoding/json"
	"time"
)

// TransportDecision is the transport mode chosen for a device.
type TransportDecision int

const (
	DecisionDirectAuthenticated TransportDecision = iota
	DecisionDirectUnauthenticated
	DecisionRelayOnly
)

func (d TransportDecision) String() string {
	switch d {
	case DecisionDirectAuthenticated:
		return "direct_authenticated"
	case DecisionDirectUnauthenticated:
		return "direct_unauthenticated"
	case DecisionRelayOnly:
		return "relay_only"
	default:
		return "invalid"
	}
}

// IsDirect reports whether the decision uses the peer-to-peer tunnel.
func (d TransportDecision) IsDirect() bool {
	return d == DecisionDirectAuthenticated || d == DecisionDirectUnauthenticated
}

func (d TransportDecision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// ConnectionContext holds the parameters of exactly one connection attempt.
// It is built fresh for each attempt and is never shared.
type ConnectionContext struct {
	DeviceID     string
	Endpoint     string
	Timeout      time.Duration
	ChannelID    uint
	Username     string
	Password     string
	MaxBufBytes  uint
	AuthOverride *AuthMaterial
}

// Authenticated reports whether the attempt will take the authenticated path.
func (c *ConnectionContext) Authenticated() bool {
	return c.AuthOverride != nil
}
