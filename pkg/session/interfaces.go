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

//go:generate mockgen -destination=mock_session.go -package=session github.com/carverauto/camshim/pkg/session Connector,Session,Recorder

package session

import (
	"context"

	"github.com/carverauto/camshim/pkg/models"
)

// Connector performs the direct transport handshake described by a
// ConnectionContext. Failures should carry a *ConnectError so they can be
// classified; any other error is classified as unknown.
type Connector interface {
	Connect(ctx context.Context, cc *models.ConnectionContext) (Session, error)
}

// Session is an established direct session.
type Session interface {
	Close() error
}

// Recorder receives one record per connection attempt.
type Recorder interface {
	RecordAttempt(ctx context.Context, record models.AttemptRecord)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, cc *models.ConnectionContext) (Session, error)

func (f ConnectorFunc) Connect(ctx context.Context, cc *models.ConnectionContext) (Session, error) {
	return f(ctx, cc)
}

// Recorders fans a record out to several recorders in order.
type Recorders []Recorder

func (rs Recorders) RecordAttempt(ctx context.Context, record models.AttemptRecord) {
	for _, r := range rs {
		if r != nil {
			r.RecordAttempt(ctx, record)
		}
	}
}
