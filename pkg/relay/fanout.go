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

package relay

import (
	"context"
	"errors"

	"github.com/carverauto/camshim/pkg/models"
)

// Publisher receives relay routes as streams enter and leave relay-only mode.
type Publisher interface {
	Publish(ctx context.Context, endpoints models.RelayEndpoints) error
	Withdraw(ctx context.Context, streamName string) error
}

// Fanout forwards to every publisher in order. A failing publisher does not
// stop the others; their errors are joined.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, endpoints models.RelayEndpoints) error {
	var errs []error

	for _, p := range f {
		if p == nil {
			continue
		}

		if err := p.Publish(ctx, endpoints); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f Fanout) Withdraw(ctx context.Context, streamName string) error {
	var errs []error

	for _, p := range f {
		if p == nil {
			continue
		}

		if err := p.Withdraw(ctx, streamName); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
