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
	"strconv"
	"strings"

	"github.com/carverauto/camshim/pkg/models"
)

// EraFor places firmwareVersion relative to cutoffVersion. Versions are
// dotted numeric strings such as "4.52.9.4188"; a leading "v" is ignored.
// A missing or unparseable version on either side yields FirmwareEraUnknown.
func EraFor(firmwareVersion, cutoffVersion string) models.FirmwareEra {
	have, ok := parseVersion(firmwareVersion)
	if !ok {
		return models.FirmwareEraUnknown
	}

	cutoff, ok := parseVersion(cutoffVersion)
	if !ok {
		return models.FirmwareEraUnknown
	}

	if compareVersions(have, cutoff) >= 0 {
		return models.FirmwareEraPostCutoff
	}

	return models.FirmwareEraPreCutoff
}

func parseVersion(v string) ([]int, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return nil, false
	}

	parts := strings.Split(v, ".")
	out := make([]int, len(parts))

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}

		out[i] = n
	}

	return out, true
}

// compareVersions treats missing trailing components as zero.
func compareVersions(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}

		if i < len(b) {
			y = b[i]
		}

		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}

	return 0
}
