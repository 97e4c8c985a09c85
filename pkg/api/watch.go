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
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	watchBuffer    = 64
	watchReadLimit = 512
	writeWait      = 10 * time.Second
)

// handleRelayWatch streams relay table changes over a WebSocket: first a
// snapshot of current routes, then one event per publish or withdrawal.
func (s *APIServer) handleRelayWatch(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWebSocketOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Failed to upgrade to WebSocket")
		return
	}
	defer func() { _ = conn.Close() }()

	events, unsubscribe := s.relay.Subscribe(watchBuffer)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.readUntilClosed(conn, cancel)

	if err := s.send(conn, WatchMessage{Type: "snapshot", Snapshot: s.relay.List(), Timestamp: time.Now()}); err != nil {
		return
	}

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			if err := s.send(conn, WatchMessage{Type: "event", Event: &ev, Timestamp: time.Now()}); err != nil {
				return
			}
		case <-ping.C:
			if err := s.send(conn, WatchMessage{Type: "ping", Timestamp: time.Now()}); err != nil {
				return
			}
		}
	}
}

func (s *APIServer) send(conn *websocket.Conn, msg WatchMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug().Err(err).Str("client_addr", conn.RemoteAddr().String()).Msg("WebSocket write failed")
		return err
	}

	return nil
}

// readUntilClosed drains client frames so close frames are processed, and
// cancels the watch when the client goes away.
func (s *APIServer) readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(watchReadLimit)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Str("client_addr", conn.RemoteAddr().String()).Msg("WebSocket closed unexpectedly")
			}

			return
		}
	}
}

func (s *APIServer) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range s.corsConfig.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	s.logger.Warn().Str("origin", origin).Msg("Rejected WebSocket origin")

	return false
}
