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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/camshim/pkg/models"
)

func allEras() []models.FirmwareEra {
	return []models.FirmwareEra{
		models.FirmwareEraUnknown,
		models.FirmwareEraPreCutoff,
		models.FirmwareEraPostCutoff,
	}
}

func TestSelect_AffectedModel(t *testing.T) {
	s := NewSelector(nil)

	tests := []struct {
		name     string
		era      models.FirmwareEra
		expected models.TransportDecision
	}{
		{"post cutoff goes relay only", models.FirmwareEraPostCutoff, models.DecisionRelayOnly},
		{"pre cutoff bypasses auth", models.FirmwareEraPreCutoff, models.DecisionDirectUnauthenticated},
		{"unknown era bypasses auth", models.FirmwareEraUnknown, models.DecisionDirectUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Select(models.DeviceProfile{ModelID: "HL_CAM4", FirmwareEra: tt.era})
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSelect_UnaffectedModelAlwaysAuthenticated(t *testing.T) {
	s := NewSelector(nil)

	for _, model := range []string{"WYZE_CAKP2JFUS", "HL_PAN3", "", "HL_CAM4X"} {
		for _, era := range allEras() {
			got := s.Select(models.DeviceProfile{ModelID: model, FirmwareEra: era})
			assert.Equal(t, models.DecisionDirectAuthenticated, got, "model=%q era=%s", model, era)
		}
	}
}

func TestSelect_ModelMatchIsCaseInsensitive(t *testing.T) {
	s := NewSelector([]string{" hl_cam4 "})

	assert.True(t, s.Affected("HL_CAM4"))
	assert.Equal(t, models.DecisionRelayOnly,
		s.Select(models.DeviceProfile{ModelID: "Hl_Cam4", FirmwareEra: models.FirmwareEraPostCutoff}))
}

func TestSelect_EmptyAffectedSet(t *testing.T) {
	s := NewSelector([]string{})

	assert.False(t, s.Affected("HL_CAM4"))
	assert.Equal(t, models.DecisionDirectAuthenticated,
		s.Select(models.DeviceProfile{ModelID: "HL_CAM4", FirmwareEra: models.FirmwareEraPostCutoff}))
}

func TestCachedSelector(t *testing.T) {
	c := NewCachedSelector(NewSelector(nil))

	pre := models.DeviceProfile{ModelID: "HL_CAM4", FirmwareEra: models.FirmwareEraPreCutoff}
	post := models.DeviceProfile{ModelID: "HL_CAM4", FirmwareEra: models.FirmwareEraPostCutoff}

	assert.Equal(t, models.DecisionDirectUnauthenticated, c.Decide("dev-1", pre))
	assert.Equal(t, models.DecisionDirectUnauthenticated, c.Decide("dev-1", pre))

	// a changed profile is never served a stale decision
	assert.Equal(t, models.DecisionRelayOnly, c.Decide("dev-1", post))

	c.Forget("dev-1")
	assert.Equal(t, models.DecisionRelayOnly, c.Decide("dev-1", post))
	assert.Equal(t, models.DecisionRelayOnly, c.Decide("", post))
}

func TestCachedSelector_Concurrent(t *testing.T) {
	c := NewCachedSelector(NewSelector(nil))
	profile := models.DeviceProfile{ModelID: "HL_CAM4", FirmwareEra: models.FirmwareEraPostCutoff}

	var wg sync.WaitGroup

	results := make([]models.TransportDecision, 64)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i] = c.Decide("shared", profile)
		}(i)
	}

	wg.Wait()

	for _, got := range results {
		assert.Equal(t, models.DecisionRelayOnly, got)
	}
}
