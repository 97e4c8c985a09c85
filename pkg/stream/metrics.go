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

package stream

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/camshim/pkg/models"
)

const (
	meterName              = "github.com/carverauto/camshim/pkg/stream"
	metricTransitionsTotal = "camshim_stream_transitions_total"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	transitionCounter metric.Int64Counter
)

func initMeter() {
	counter, err := otel.Meter(meterName).Int64Counter(
		metricTransitionsTotal,
		metric.WithDescription("Stream lifecycle state transitions"),
	)
	if err != nil {
		otel.Handle(err)
	}

	transitionCounter = counter
}

func recordTransition(stream string, from, to models.StreamState) {
	meterOnce.Do(initMeter)

	if transitionCounter == nil {
		return
	}

	transitionCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("stream", stream),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}
