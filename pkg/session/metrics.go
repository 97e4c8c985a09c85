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

package session

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/camshim/pkg/models"
)

const (
	meterName               = "github.com/carverauto/camshim/pkg/session"
	metricAttemptsTotal     = "camshim_connection_attempts_total"
	metricAttemptDurationS  = "camshim_connection_attempt_duration_seconds"
	outcomeSuccess          = "success"
	outcomeFailure          = "failure"
	errorKindAttributeEmpty = "none"
)

var (
	// instrumentation handles are cached globally to avoid re-registering OTEL instruments on every call.
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	attemptCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	attemptHistogram metric.Float64Histogram
)

func initMeter() {
	meter := otel.Meter(meterName)

	counter, err := meter.Int64Counter(
		metricAttemptsTotal,
		metric.WithDescription("Direct connection attempts by transport decision and outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}

	attemptCounter = counter

	hist, err := meter.Float64Histogram(
		metricAttemptDurationS,
		metric.WithDescription("Duration of direct connection attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}

	attemptHistogram = hist
}

// MetricsRecorder records attempts as OTel metrics on the global meter provider.
type MetricsRecorder struct{}

func (MetricsRecorder) RecordAttempt(ctx context.Context, record models.AttemptRecord) {
	meterOnce.Do(initMeter)

	outcome := outcomeFailure
	if record.Success {
		outcome = outcomeSuccess
	}

	kind := errorKindAttributeEmpty
	if record.ErrorKind != nil {
		kind = record.ErrorKind.String()
	}

	attrs := metric.WithAttributes(
		attribute.String("transport_decision", record.Decision.String()),
		attribute.String("outcome", outcome),
		attribute.String("error_kind", kind),
	)

	if attemptCounter != nil {
		attemptCounter.Add(ctx, 1, attrs)
	}

	if attemptHistogram != nil {
		attemptHistogram.Record(ctx, (time.Duration(record.DurationMs) * time.Millisecond).Seconds(), attrs)
	}
}
