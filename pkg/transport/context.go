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
	"errors"
	"time"

	"github.com/carverauto/camshim/pkg/models"
)

var (
	// ErrRelayOnly is returned when a context is requested for a relay-only device.
	ErrRelayOnly = errors.New("relay-only devices have no direct connection context")
	// ErrNoDescriptor is returned when BuildContext is given a nil descriptor.
	ErrNoDescriptor = errors.New("device descriptor is required")
	// ErrInvalidDecision is returned for an out-of-range decision value.
	ErrInvalidDecision = errors.New("invalid transport decision")
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultUsername    = "admin"
	DefaultMaxBufBytes = 10 * 1024 * 1024
)

// Params are the caller's requested connection parameters. Zero fields fall
// back to the descriptor's credentials and then to the package defaults.
type Params struct {
	Timeout     time.Duration `json:"timeout"`
	ChannelID   uint          `json:"channel_id"`
	Username    string        `json:"username"`
	Password    string        `json:"password"`
	MaxBufBytes uint          `json:"max_buf_bytes"`
}

// BuildContext derives the parameters for one direct connection attempt.
//
// The descriptor is read, never written. For DecisionDirectAuthenticated the
// descriptor's auth material is copied into the context; for
// DecisionDirectUnauthenticated the context carries none, whatever the
// descriptor holds.
func BuildContext(
	decision models.TransportDecision,
	desc *models.Descriptor,
	params Params,
) (*models.ConnectionContext, error) {
	if desc == nil {
		return nil, ErrNoDescriptor
	}

	switch decision {
	case models.DecisionRelayOnly:
		return nil, ErrRelayOnly
	case models.DecisionDirectAuthenticated, models.DecisionDirectUnauthenticated:
	default:
		return nil, ErrInvalidDecision
	}

	cc := &models.ConnectionContext{
		DeviceID:    desc.DeviceID,
		Endpoint:    desc.Endpoint,
		Timeout:     params.Timeout,
		ChannelID:   params.ChannelID,
		Username:    firstNonEmpty(params.Username, desc.Username, DefaultUsername),
		Password:    firstNonEmpty(params.Password, desc.Password),
		MaxBufBytes: params.MaxBufBytes,
	}

	if cc.Timeout <= 0 {
		cc.Timeout = DefaultTimeout
	}

	if cc.MaxBufBytes == 0 {
		cc.MaxBufBytes = DefaultMaxBufBytes
	}

	if decision == models.DecisionDirectAuthenticated && desc.Auth != nil {
		auth := *desc.Auth
		cc.AuthOverride = &auth
	}

	return cc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
