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

// Package relay publishes the cloud-relay routes of streams that must not use
// the direct backend.
package relay

import (
	"net/url"
	"strings"

	"github.com/pion/webrtc/v4"

	"github.com/carverauto/camshim/pkg/models"
)

const (
	webRTCPrefix    = "/webrtc/"
	signalingPrefix = "/signaling/"
	signalingQuery  = "?kvs"
)

// EndpointsFor returns the relay routes for streamName. The ICE server list is
// copied.
func EndpointsFor(streamName string, iceServers []webrtc.ICEServer) models.RelayEndpoints {
	escaped := url.PathEscape(streamName)

	var ice []webrtc.ICEServer
	if len(iceServers) > 0 {
		ice = make([]webrtc.ICEServer, len(iceServers))
		for i, s := range iceServers {
			ice[i] = s
			ice[i].URLs = append([]string(nil), s.URLs...)
		}
	}

	return models.RelayEndpoints{
		StreamName:    streamName,
		RelayPath:     webRTCPrefix + escaped,
		SignalingPath: signalingPrefix + escaped + signalingQuery,
		ICEServers:    ice,
	}
}

// NameURI turns a camera nickname into a stream name usable in a URL path:
// lower case, with every run of other characters collapsed to a single dash.
func NameURI(nickname string) string {
	var b strings.Builder

	b.Grow(len(nickname))

	dash := false

	for _, r := range strings.ToLower(strings.TrimSpace(nickname)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)

			dash = false

			continue
		}

		if !dash && b.Len() > 0 {
			b.WriteByte('-')

			dash = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
