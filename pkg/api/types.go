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

package api

import (
	"time"

	"github.com/carverauto/camshim/pkg/models"
	"github.com/carverauto/camshim/pkg/relay"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// StartResponse reports a start request. Error is set when the attempt
// failed; the request itself still succeeded.
type StartResponse struct {
	Stream string             `json:"stream"`
	Result models.StartResult `json:"result"`
	Error  string             `json:"error,omitempty"`
}

// StopResponse reports a stop request.
type StopResponse struct {
	Stream string             `json:"stream"`
	State  models.StreamState `json:"state"`
	Error  string             `json:"error,omitempty"`
}

// WatchMessage is one frame on the relay watch WebSocket.
type WatchMessage struct {
	Type      string                  `json:"type"` // "snapshot", "event", "ping"
	Snapshot  []models.RelayEndpoints `json:"snapshot,omitempty"`
	Event     *relay.Event            `json:"event,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}
