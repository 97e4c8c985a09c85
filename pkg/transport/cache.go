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

package transport

import (
	"sync"

	"github.com/carverauto/camshim/pkg/models"
)

// DecisionSource is anything that can classify a device.
type DecisionSource interface {
	Select(profile models.DeviceProfile) models.TransportDecision
}

var _ DecisionSource = (*Selector)(nil)

// CachedSelector memoises decisions per device id. A stored decision is never
// replaced; call Forget when a device's profile changes.
type CachedSelector struct {
	selector  DecisionSource
	decisions sync.Map // device id -> cachedDecision
}

type cachedDecision struct {
	profile  models.DeviceProfile
	decision models.TransportDecision
}

func NewCachedSelector(selector DecisionSource) *CachedSelector {
	return &CachedSelector{selector: selector}
}

// Decide returns the decision for deviceID, computing it from profile on first
// use. A cached entry computed from a different profile is ignored and the
// decision is recomputed without being stored.
func (c *CachedSelector) Decide(deviceID string, profile models.DeviceProfile) models.TransportDecision {
	if deviceID == "" {
		return c.selector.Select(profile)
	}

	if v, ok := c.decisions.Load(deviceID); ok {
		entry := v.(cachedDecision)
		if entry.profile == profile {
			return entry.decision
		}

		return c.selector.Select(profile)
	}

	entry := cachedDecision{profile: profile, decision: c.selector.Select(profile)}
	actual, _ := c.decisions.LoadOrStore(deviceID, entry)

	stored := actual.(cachedDecision)
	if stored.profile != profile {
		return entry.decision
	}

	return stored.decision
}

// Forget drops the cached decision for deviceID.
func (c *CachedSelector) Forget(deviceID string) {
	c.decisions.Delete(deviceID)
}
