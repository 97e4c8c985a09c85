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
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/carverauto/camshim/pkg/stream"
)

func (s *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIServer) getStreams(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.streams.Snapshot())
}

func (s *APIServer) getStream(w http.ResponseWriter, r *http.Request) {
	status, err := s.streams.Status(mux.Vars(r)["name"])
	if err != nil {
		s.writeStreamError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, status)
}

// startStream runs the start to completion. The attempt is detached from the
// request so a client hanging up does not abort it; the attempt's own
// timeout still bounds it.
func (s *APIServer) startStream(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	res, err := s.streams.Start(context.WithoutCancel(r.Context()), name)
	if errors.Is(err, stream.ErrStreamNotFound) {
		s.writeStreamError(w, err)
		return
	}

	resp := StartResponse{Stream: name, Result: res}
	if err != nil {
		resp.Error = err.Error()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) stopStream(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	state, err := s.streams.Stop(context.WithoutCancel(r.Context()), name)
	if errors.Is(err, stream.ErrStreamNotFound) {
		s.writeStreamError(w, err)
		return
	}

	resp := StopResponse{Stream: name, State: state}
	if err != nil {
		resp.Error = err.Error()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) getRelays(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.relay.List())
}

func (s *APIServer) getRelay(w http.ResponseWriter, r *http.Request) {
	endpoints, ok := s.relay.Get(mux.Vars(r)["name"])
	if !ok {
		s.writeError(w, "stream is not relay-only", http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, endpoints)
}

func (s *APIServer) writeStreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, stream.ErrStreamNotFound) {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	s.writeError(w, err.Error(), http.StatusInternalServerError)
}
