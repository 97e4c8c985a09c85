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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFirmwareEra(t *testing.T) {
	for in, want := range map[string]FirmwareEra{
		"":             FirmwareEraUnknown,
		"unknown":      FirmwareEraUnknown,
		"PRE_CUTOFF":   FirmwareEraPreCutoff,
		" post_cutoff": FirmwareEraPostCutoff,
	} {
		got, err := ParseFirmwareEra(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFirmwareEra("later")
	assert.ErrorIs(t, err, ErrInvalidFirmwareEra)
}

func TestErrorKindJSON(t *testing.T) {
	var k ErrorKind
	require.NoError(t, json.Unmarshal([]byte(`"auth_rejected"`), &k))
	assert.Equal(t, ErrorKindAuthRejected, k)

	err := json.Unmarshal([]byte(`"flaky"`), &k)
	assert.ErrorIs(t, err, ErrInvalidErrorKind)

	b, err := json.Marshal(FailureOutcome(ErrorKindProtocol, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error_kind":"protocol_error"}`, string(b))
}

func TestStreamStateCanStart(t *testing.T) {
	assert.True(t, StreamStopped.CanStart())
	assert.True(t, StreamFailed.CanStart())
	assert.False(t, StreamConnecting.CanStart())
	assert.False(t, StreamRunning.CanStart())
	assert.False(t, StreamRelayOnly.CanStart())
}

func TestTransportDecisionIsDirect(t *testing.T) {
	assert.True(t, DecisionDirectAuthenticated.IsDirect())
	assert.True(t, DecisionDirectUnauthenticated.IsDirect())
	assert.False(t, DecisionRelayOnly.IsDirect())
	assert.Equal(t, "invalid", TransportDecision(42).String())
}

func TestDescriptorJSONOmitsSecrets(t *testing.T) {
	desc := Descriptor{
		Name:     "garage",
		DeviceID: "D1",
		Username: "admin",
		Password: "hunter2",
		Auth:     &AuthMaterial{Key: "0123456789abcdef", DTLS: true},
	}

	b, err := json.Marshal(desc)
	require.NoError(t, err)

	assert.NotContains(t, string(b), "hunter2")
	assert.NotContains(t, string(b), "0123456789abcdef")
	assert.Contains(t, string(b), `"dtls":true`)
}

func TestKeyPrefix(t *testing.T) {
	var nilAuth *AuthMaterial
	assert.Empty(t, nilAuth.KeyPrefix(8))

	auth := &AuthMaterial{Key: "0123456789abcdef"}
	assert.Equal(t, "01234567", auth.KeyPrefix(8))
	assert.Equal(t, "0123456789abcdef", auth.KeyPrefix(32))
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	require.NoError(t, json.Unmarshal([]byte(`2000000000`), &d))
	assert.Equal(t, 2*time.Second, time.Duration(d))

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.ErrorIs(t, json.Unmarshal([]byte(`true`), &d), errInvalidDuration)
}

func TestNATSConfigValidate(t *testing.T) {
	disabled := NATSConfig{}
	require.NoError(t, disabled.Validate())
	assert.Empty(t, disabled.Stream)

	missing := NATSConfig{Enabled: true}
	assert.ErrorIs(t, missing.Validate(), errNATSURLRequired)

	cfg := NATSConfig{Enabled: true, URL: "nats://127.0.0.1:4222"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "CAMSHIM", cfg.Stream)
	assert.Equal(t, "camshim", cfg.Subject)
}
