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

	"github.com/pion/webrtc/v4"
)

// StreamState is the lifecycle state of one camera stream.
type StreamState int

const (
	StreamStopped StreamState = iota
	StreamConnecting
	StreamRunning
	StreamRelayOnly
	StreamFailed
)

func (s StreamState) String() string {
	switch s {
	case StreamStopped:
		return "stopped"
	case StreamConnecting:
		return "connecting"
	case StreamRunning:
		return "running"
	case StreamRelayOnly:
		return "relay_only"
	case StreamFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// CanStart reports whether Start is a valid transition from s.
func (s StreamState) CanStart() bool {
	return s == StreamStopped || s == StreamFailed
}

func (s StreamState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// RelayEndpoints are the routes a relay-only stream is reachable on.
type RelayEndpoints struct {
	StreamName    string             `json:"stream_name"`
	RelayPath     string             `json:"relay_path"`
	SignalingPath string             `json:"signaling_path"`
	ICEServers    []webrtc.ICEServer `json:"ice_servers,omitempty"`
}

// StartResult reports what a Start call did.
type StartResult struct {
	State   StreamState     `json:"state"`
	Outcome *AttemptOutcome `json:"outcome,omitempty"`
	Relay   *RelayEndpoints `json:"relay,omitempty"`
}

// StreamStatus is a point-in-time view of a registered stream.
type StreamStatus struct {
	Name        string            `json:"name"`
	DeviceID    string            `json:"device_id"`
	ModelID     string            `json:"model_id"`
	FirmwareEra FirmwareEra       `json:"firmware_era"`
	Decision    TransportDecision `json:"transport_decision"`
	State       StreamState       `json:"state"`
	LastOutcome *AttemptOutcome   `json:"last_outcome,omitempty"`
	Relay       *RelayEndpoints   `json:"relay,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
