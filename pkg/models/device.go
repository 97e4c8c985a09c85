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
	"fmt"
	"strings"
)

// FirmwareEra places a device's firmware relative to the release that broke
// the authenticated direct path. The zero value is FirmwareEraUnknown.
type FirmwareEra int

const (
	FirmwareEraUnknown FirmwareEra = iota
	FirmwareEraPreCutoff
	FirmwareEraPostCutoff
)

func (e FirmwareEra) String() string {
	switch e {
	case FirmwareEraPreCutoff:
		return "pre_cutoff"
	case FirmwareEraPostCutoff:
		return "post_cutoff"
	case FirmwareEraUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ParseFirmwareEra accepts the String form of an era, case-insensitively.
// An empty string parses as FirmwareEraUnknown.
func ParseFirmwareEra(s string) (FirmwareEra, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return FirmwareEraUnknown, nil
	case "pre_cutoff", "pre-cutoff":
		return FirmwareEraPreCutoff, nil
	case "post_cutoff", "post-cutoff":
		return FirmwareEraPostCutoff, nil
	default:
		return FirmwareEraUnknown, fmt.Errorf("%w: %q", ErrInvalidFirmwareEra, s)
	}
}

func (e FirmwareEra) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

func (e *FirmwareEra) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	era, err := ParseFirmwareEra(s)
	if err != nil {
		return err
	}

	*e = era

	return nil
}

// DeviceProfile is the transport-relevant classification of a device.
// It is a plain value; copies never alias.
type DeviceProfile struct {
	ModelID     string      `json:"model_id"`
	FirmwareEra FirmwareEra `json:"firmware_era"`
}

// AuthMaterial is what the authenticated direct path needs from a device
// record: the device auth key and its DTLS flags.
type AuthMaterial struct {
	Key        string `json:"-"`
	DTLS       bool   `json:"dtls"`
	ParentDTLS bool   `json:"parent_dtls"`
}

// KeyPrefix returns at most the first n characters of the auth key, for logs.
func (a *AuthMaterial) KeyPrefix(n int) string {
	if a == nil {
		return ""
	}

	if len(a.Key) <= n {
		return a.Key
	}

	return a.Key[:n]
}

// Descriptor is a device's persistent record as supplied by discovery.
// The shim only ever reads it.
type Descriptor struct {
	Name     string        `json:"name"`
	Nickname string        `json:"nickname"`
	DeviceID string        `json:"device_id"`
	Profile  DeviceProfile `json:"profile"`
	Endpoint string        `json:"endpoint"`
	Username string        `json:"-"`
	Password string        `json:"-"`
	Auth     *AuthMaterial `json:"auth,omitempty"`
}
