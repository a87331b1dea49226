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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName            = "github.com/carverauto/camview/pkg/relay"
	metricActiveEntries  = "relay_active_entries"
	metricActiveViewers  = "relay_active_viewers"
	metricChunksTotal    = "relay_chunks_forwarded_total"
	metricBytesTotal     = "relay_bytes_forwarded_total"
	metricSpawnsTotal    = "relay_transcoder_spawns_total"
	metricDroppedViewers = "relay_dropped_viewers_total"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	entriesGauge metric.Int64UpDownCounter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	viewersGauge metric.Int64UpDownCounter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	chunksCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	bytesCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	spawnCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	droppedCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	var err error

	if entriesGauge, err = meter.Int64UpDownCounter(
		metricActiveEntries,
		metric.WithDescription("Live relay entries, one per camera with a running transcoder"),
	); err != nil {
		otel.Handle(err)
	}

	if viewersGauge, err = meter.Int64UpDownCounter(
		metricActiveViewers,
		metric.WithDescription("Viewers attached to a relay entry"),
	); err != nil {
		otel.Handle(err)
	}

	if chunksCounter, err = meter.Int64Counter(
		metricChunksTotal,
		metric.WithDescription("Transcoder output chunks read and fanned out"),
	); err != nil {
		otel.Handle(err)
	}

	if bytesCounter, err = meter.Int64Counter(
		metricBytesTotal,
		metric.WithDescription("Transcoder output bytes read and fanned out"),
		metric.WithUnit("By"),
	); err != nil {
		otel.Handle(err)
	}

	if spawnCounter, err = meter.Int64Counter(
		metricSpawnsTotal,
		metric.WithDescription("Streaming transcoder processes started"),
	); err != nil {
		otel.Handle(err)
	}

	if droppedCounter, err = meter.Int64Counter(
		metricDroppedViewers,
		metric.WithDescription("Viewers detached because their send queue overflowed"),
	); err != nil {
		otel.Handle(err)
	}
}

func cameraAttr(cameraID int64) metric.MeasurementOption {
	return metric.WithAttributes(attribute.Int64("camera_id", cameraID))
}

func recordEntryDelta(ctx context.Context, cameraID, delta int64) {
	meterOnce.Do(initMeter)

	if entriesGauge != nil {
		entriesGauge.Add(ctx, delta, cameraAttr(cameraID))
	}
}

func recordViewerDelta(ctx context.Context, cameraID, delta int64) {
	meterOnce.Do(initMeter)

	if viewersGauge != nil && delta != 0 {
		viewersGauge.Add(ctx, delta, cameraAttr(cameraID))
	}
}

func recordChunk(ctx context.Context, cameraID int64, size int) {
	meterOnce.Do(initMeter)

	if chunksCounter != nil {
		chunksCounter.Add(ctx, 1, cameraAttr(cameraID))
	}

	if bytesCounter != nil {
		bytesCounter.Add(ctx, int64(size), cameraAttr(cameraID))
	}
}

func recordSpawn(ctx context.Context, cameraID int64) {
	meterOnce.Do(initMeter)

	if spawnCounter != nil {
		spawnCounter.Add(ctx, 1, cameraAttr(cameraID))
	}
}

func recordDroppedViewer(ctx context.Context, cameraID int64) {
	meterOnce.Do(initMeter)

	if droppedCounter != nil {
		droppedCounter.Add(ctx, 1, cameraAttr(cameraID))
	}
}
