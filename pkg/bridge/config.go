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

// Package bridge wires the transport selector, session manager, stream
// coordinators, relay table and HTTP API into one service.
package bridge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
	"github.com/carverauto/camshim/pkg/relay"
	"github.com/carverauto/camshim/pkg/transport"
)

var (
	errNoDevices         = errors.New("at least one device is required")
	errDeviceIDRequired  = errors.New("device_id is required")
	errModelIDRequired   = errors.New("model_id is required")
	errDeviceUnnamed     = errors.New("device needs a name or a nickname that yields one")
	errDuplicateStream   = errors.New("duplicate stream name")
	errInvalidCodeKey    = errors.New("code override key must be an integer")
	errICEServerNoURLs   = errors.New("ice server has no urls")
	errNegativeParameter = errors.New("connection parameters must not be negative")
)

const (
	defaultListenAddr       = ":8090"
	defaultServiceName      = "camshim"
	defaultShutdownTimeout  = 10 * time.Second
	defaultStartConcurrency = 16
)

// AffectedModel is a model whose authenticated direct path regressed at
// FirmwareCutoff. Without a cutoff a device's era comes only from its
// explicit firmware_era.
type AffectedModel struct {
	ModelID        string `json:"model_id"`
	FirmwareCutoff string `json:"firmware_cutoff"`
}

// SelectionConfig is the transport selection policy. A nil AffectedModels
// selects transport.DefaultAffectedModels with no cutoff.
type SelectionConfig struct {
	AffectedModels []AffectedModel `json:"affected_models"`
}

// ConnectionConfig holds the defaults applied to every direct attempt.
type ConnectionConfig struct {
	Timeout     models.Duration `json:"timeout"`
	ChannelID   uint            `json:"channel_id"`
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	MaxBufBytes uint            `json:"max_buf_bytes"`
}

// RelayConfig describes the relay endpoints handed to viewers.
type RelayConfig struct {
	ICEServers []webrtc.ICEServer `json:"ice_servers"`
}

// DeviceConfig is one camera as configured. FirmwareEra, when set, wins over
// an era derived from FirmwareVersion.
type DeviceConfig struct {
	Name            string             `json:"name"`
	Nickname        string             `json:"nickname"`
	DeviceID        string             `json:"device_id"`
	ModelID         string             `json:"model_id"`
	FirmwareVersion string             `json:"firmware_version"`
	FirmwareEra     models.FirmwareEra `json:"firmware_era"`
	Endpoint        string             `json:"endpoint"`
	Username        string             `json:"username"`
	Password        string             `json:"password"`
	AuthKey         string             `json:"auth_key"`
	DTLS            bool               `json:"dtls"`
	ParentDTLS      bool               `json:"parent_dtls"`
}

// Config is the camshim service configuration.
type Config struct {
	ServiceName      string                      `json:"service_name"`
	ListenAddr       string                      `json:"listen_addr"`
	APIKey           string                      `json:"api_key"`
	CORS             models.CORSConfig           `json:"cors"`
	Logging          *logger.Config              `json:"logging,omitempty"`
	NATS             *models.NATSConfig          `json:"nats,omitempty"`
	Relay            RelayConfig                 `json:"relay"`
	Selection        SelectionConfig             `json:"selection"`
	Connection       ConnectionConfig            `json:"connection"`
	CodeOverrides    map[string]models.ErrorKind `json:"code_overrides,omitempty"`
	Autostart        bool                        `json:"autostart"`
	StartConcurrency int                         `json:"start_concurrency"`
	ShutdownTimeout  models.Duration             `json:"shutdown_timeout"`
	Devices          []DeviceConfig              `json:"devices"`
}

// Validate implements config.Validator. It fills in defaults.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}

	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.StartConcurrency <= 0 {
		c.StartConcurrency = defaultStartConcurrency
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = models.Duration(defaultShutdownTimeout)
	}

	if c.Selection.AffectedModels == nil {
		for _, id := range transport.DefaultAffectedModels {
			c.Selection.AffectedModels = append(c.Selection.AffectedModels, AffectedModel{ModelID: id})
		}
	}

	for _, m := range c.Selection.AffectedModels {
		if strings.TrimSpace(m.ModelID) == "" {
			return errModelIDRequired
		}
	}

	if c.Connection.Timeout < 0 {
		return errNegativeParameter
	}

	if c.NATS != nil {
		if err := c.NATS.Validate(); err != nil {
			return fmt.Errorf("nats: %w", err)
		}
	}

	for i, s := range c.Relay.ICEServers {
		if len(s.URLs) == 0 {
			return fmt.Errorf("%w: relay.ice_servers[%d]", errICEServerNoURLs, i)
		}
	}

	if _, err := c.codeOverrides(); err != nil {
		return err
	}

	return c.validateDevices()
}

func (c *Config) validateDevices() error {
	if len(c.Devices) == 0 {
		return errNoDevices
	}

	seen := make(map[string]struct{}, len(c.Devices))

	for i := range c.Devices {
		d := &c.Devices[i]

		if d.DeviceID == "" {
			return fmt.Errorf("%w: devices[%d]", errDeviceIDRequired, i)
		}

		if d.ModelID == "" {
			return fmt.Errorf("%w: device %s", errModelIDRequired, d.DeviceID)
		}

		name := d.streamName()
		if name == "" {
			return fmt.Errorf("%w: device %s", errDeviceUnnamed, d.DeviceID)
		}

		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s", errDuplicateStream, name)
		}

		seen[name] = struct{}{}
	}

	return nil
}

func (d *DeviceConfig) streamName() string {
	if d.Name != "" {
		return d.Name
	}

	return relay.NameURI(d.Nickname)
}

// codeOverrides converts the string-keyed JSON map into connector codes.
func (c *Config) codeOverrides() (map[int]models.ErrorKind, error) {
	if len(c.CodeOverrides) == 0 {
		return nil, nil
	}

	out := make(map[int]models.ErrorKind, len(c.CodeOverrides))

	for key, kind := range c.CodeOverrides {
		code, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errInvalidCodeKey, key)
		}

		out[code] = kind
	}

	return out, nil
}

// AffectedModelIDs lists the model ids the selector treats as affected.
func (c *Config) AffectedModelIDs() []string {
	ids := make([]string, 0, len(c.Selection.AffectedModels))

	for _, m := range c.Selection.AffectedModels {
		ids = append(ids, m.ModelID)
	}

	return ids
}

func (c *Config) cutoffFor(modelID string) string {
	for _, m := range c.Selection.AffectedModels {
		if strings.EqualFold(strings.TrimSpace(m.ModelID), strings.TrimSpace(modelID)) {
			return m.FirmwareCutoff
		}
	}

	return ""
}

// Params returns the connection defaults as transport parameters.
func (c *Config) Params() transport.Params {
	return transport.Params{
		Timeout:     time.Duration(c.Connection.Timeout),
		ChannelID:   c.Connection.ChannelID,
		Username:    c.Connection.Username,
		Password:    c.Connection.Password,
		MaxBufBytes: c.Connection.MaxBufBytes,
	}
}

// Descriptor builds the device descriptor for d. The firmware era comes from
// d.FirmwareEra when set, otherwise from d.FirmwareVersion against the
// model's cutoff. Unaffected models keep an unknown era.
func (c *Config) Descriptor(d *DeviceConfig) models.Descriptor {
	era := d.FirmwareEra
	if era == models.FirmwareEraUnknown {
		if cutoff := c.cutoffFor(d.ModelID); cutoff != "" {
			era = transport.EraFor(d.FirmwareVersion, cutoff)
		}
	}

	desc := models.Descriptor{
		Name:     d.streamName(),
		Nickname: d.Nickname,
		DeviceID: d.DeviceID,
		Profile: models.DeviceProfile{
			ModelID:     d.ModelID,
			FirmwareEra: era,
		},
		Endpoint: d.Endpoint,
		Username: d.Username,
		Password: d.Password,
	}

	if d.AuthKey != "" {
		desc.Auth = &models.AuthMaterial{
			Key:        d.AuthKey,
			DTLS:       d.DTLS,
			ParentDTLS: d.ParentDTLS,
		}
	}

	return desc
}
