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

package bridge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/camshim/pkg/models"
)

const sampleConfig = `{
	"listen_addr": "127.0.0.1:9000",
	"api_key": "secret",
	"relay": {"ice_servers": [{"urls": ["stun:stun.l.google.com:19302"]}]},
	"selection": {"affected_models": [{"model_id": "HL_CAM4", "firmware_cutoff": "4.52.0"}]},
	"connection": {"timeout": "5s", "channel_id": 0, "username": "admin"},
	"code_overrides": {"-13": "unreachable"},
	"autostart": true,
	"devices": [
		{"nickname": "Front Door", "device_id": "D1", "model_id": "HL_CAM4", "firmware_version": "4.52.3", "endpoint": "10.0.0.5:554"},
		{"name": "garage", "device_id": "D2", "model_id": "HL_CAM4", "firmware_version": "4.50.1", "auth_key": "abcdef0123456789", "dtls": true},
		{"name": "porch", "device_id": "D3", "model_id": "WYZE_CAKP2JFUS", "password": "pw"}
	]
}`

func loadSample(t *testing.T) *Config {
	t.Helper()

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(sampleConfig), &cfg))
	require.NoError(t, cfg.Validate())

	return &cfg
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{Devices: []DeviceConfig{{Name: "a", DeviceID: "D1", ModelID: "HL_CAM4"}}}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, defaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, defaultServiceName, cfg.ServiceName)
	assert.Equal(t, defaultStartConcurrency, cfg.StartConcurrency)
	assert.Equal(t, models.Duration(defaultShutdownTimeout), cfg.ShutdownTimeout)
	assert.Equal(t, []string{"HL_CAM4"}, cfg.AffectedModelIDs())
}

func TestConfigValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"no devices", func(c *Config) { c.Devices = nil }, errNoDevices},
		{"missing device id", func(c *Config) { c.Devices[0].DeviceID = "" }, errDeviceIDRequired},
		{"missing model", func(c *Config) { c.Devices[0].ModelID = "" }, errModelIDRequired},
		{"unnamed", func(c *Config) { c.Devices[0].Nickname = "!!!" }, errDeviceUnnamed},
		{"duplicate", func(c *Config) { c.Devices[1].Name = "front-door" }, errDuplicateStream},
		{"bad code key", func(c *Config) { c.CodeOverrides = map[string]models.ErrorKind{"x": models.ErrorKindTimeout} }, errInvalidCodeKey},
		{"ice without urls", func(c *Config) { c.Relay.ICEServers[0].URLs = nil }, errICEServerNoURLs},
		{"blank affected model", func(c *Config) { c.Selection.AffectedModels[0].ModelID = " " }, errModelIDRequired},
		{"negative timeout", func(c *Config) { c.Connection.Timeout = models.Duration(-time.Second) }, errNegativeParameter},
		{"nats without url", func(c *Config) { c.NATS = &models.NATSConfig{Enabled: true} }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadSample(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfigDescriptors(t *testing.T) {
	cfg := loadSample(t)

	front := cfg.Descriptor(&cfg.Devices[0])
	assert.Equal(t, "front-door", front.Name)
	assert.Equal(t, models.FirmwareEraPostCutoff, front.Profile.FirmwareEra)
	assert.Equal(t, "10.0.0.5:554", front.Endpoint)
	assert.Nil(t, front.Auth)

	garage := cfg.Descriptor(&cfg.Devices[1])
	assert.Equal(t, models.FirmwareEraPreCutoff, garage.Profile.FirmwareEra)
	require.NotNil(t, garage.Auth)
	assert.True(t, garage.Auth.DTLS)
	assert.Equal(t, "abcdef0123456789", garage.Auth.Key)

	porch := cfg.Descriptor(&cfg.Devices[2])
	assert.Equal(t, models.FirmwareEraUnknown, porch.Profile.FirmwareEra)
	assert.Equal(t, "pw", porch.Password)
}

func TestConfigExplicitEraWins(t *testing.T) {
	cfg := loadSample(t)
	cfg.Devices[1].FirmwareEra = models.FirmwareEraPostCutoff

	assert.Equal(t, models.FirmwareEraPostCutoff, cfg.Descriptor(&cfg.Devices[1]).Profile.FirmwareEra)
}

func TestConfigParamsAndOverrides(t *testing.T) {
	cfg := loadSample(t)

	params := cfg.Params()
	assert.Equal(t, 5*time.Second, params.Timeout)
	assert.Equal(t, "admin", params.Username)

	overrides, err := cfg.codeOverrides()
	require.NoError(t, err)
	assert.Equal(t, map[int]models.ErrorKind{-13: models.ErrorKindUnreachable}, overrides)
}
