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

// Package transport decides which backend a camera stream may use and builds
// the per-attempt connection parameters for the direct backend.
package transport

import (
	"strings"

	"github.com/carverauto/camshim/pkg/models"
)

// DefaultAffectedModels lists models whose authenticated direct path
// regressed after the February 2025 firmware release.
//
//nolint:gochecknoglobals // read-only default policy
var DefaultAffectedModels = []string{"HL_CAM4"}

// Selector maps a DeviceProfile to a TransportDecision. It is immutable after
// construction and safe for concurrent use.
type Selector struct {
	affected map[string]struct{}
}

// NewSelector returns a Selector for the given affected models. Model ids are
// compared case-insensitively. A nil slice selects DefaultAffectedModels.
func NewSelector(affectedModels []string) *Selector {
	if affectedModels == nil {
		affectedModels = DefaultAffectedModels
	}

	affected := make(map[string]struct{}, len(affectedModels))

	for _, m := range affectedModels {
		m = normalizeModel(m)
		if m == "" {
			continue
		}

		affected[m] = struct{}{}
	}

	return &Selector{affected: affected}
}

// Affected reports whether modelID is in the affected set.
func (s *Selector) Affected(modelID string) bool {
	_, ok := s.affected[normalizeModel(modelID)]

	return ok
}

// Select is total: every profile, including one with an unknown firmware era,
// maps to exactly one decision.
func (s *Selector) Select(profile models.DeviceProfile) models.TransportDecision {
	if !s.Affected(profile.ModelID) {
		return models.DecisionDirectAuthenticated
	}

	if profile.FirmwareEra == models.FirmwareEraPostCutoff {
		return models.DecisionRelayOnly
	}

	return models.DecisionDirectUnauthenticated
}

func normalizeModel(m string) string {
	return strings.ToUpper(strings.TrimSpace(m))
}
