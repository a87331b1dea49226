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

// Package capture grabs still JPEG frames from camera feeds.
package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
	"github.com/carverauto/camview/pkg/transcoder"
)

const tracerName = "github.com/carverauto/camview/pkg/capture"

// FeedResolver returns the transcoder input address for a camera.
type FeedResolver interface {
	ResolveFeed(ctx context.Context, cameraID int64) (string, error)
}

// Capturer runs one-shot still-image transcoders.
type Capturer struct {
	cfg      models.CaptureConfig
	tcfg     models.TranscoderConfig
	feeds    FeedResolver
	launcher transcoder.Launcher
	log      logger.Logger
	tracer   trace.Tracer
}

func New(
	cfg *models.CaptureConfig,
	tcfg *models.TranscoderConfig,
	feeds FeedResolver,
	launcher transcoder.Launcher,
	log logger.Logger,
) *Capturer {
	return &Capturer{
		cfg:      *cfg,
		tcfg:     *tcfg,
		feeds:    feeds,
		launcher: launcher,
		log:      log,
		tracer:   logger.GetTracer(tracerName),
	}
}

// CaptureFrame returns one base64-encoded JPEG from the camera.
func (c *Capturer) CaptureFrame(ctx context.Context, cameraID int64) (string, error) {
	ctx, span := c.tracer.Start(ctx, "capture.frame", trace.WithAttributes(attribute.Int64("camera_id", cameraID)))
	defer span.End()

	feed, err := c.feeds.ResolveFeed(ctx, cameraID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve feed")

		return "", err
	}

	if timeout := time.Duration(c.cfg.Timeout); timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()

	frame, err := transcoder.Run(ctx, c.launcher, transcoder.SnapshotArgs(&c.tcfg, feed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot")

		c.log.Warn().Err(err).Int64("camera_id", cameraID).Msg("frame capture failed")

		return "", fmt.Errorf("capture camera %d: %w", cameraID, err)
	}

	span.SetAttributes(attribute.Int("frame_bytes", len(frame)))

	c.log.Debug().
		Int64("camera_id", cameraID).
		Int("bytes", len(frame)).
		Dur("elapsed", time.Since(started)).
		Msg("captured frame")

	return base64.StdEncoding.EncodeToString(frame), nil
}

// ClampFrameCount bounds count to the configured frame range.
func (c *Capturer) ClampFrameCount(count int) int {
	if count < c.cfg.MinFrames {
		return c.cfg.MinFrames
	}

	if count > c.cfg.MaxFrames {
		return c.cfg.MaxFrames
	}

	return count
}

// CaptureFrames captures count frames (clamped) with interval between them.
// A failure after at least one success returns the frames gathered so far;
// a failure of the first capture is returned as an error.
func (c *Capturer) CaptureFrames(ctx context.Context, cameraID int64, count int, interval time.Duration) ([]string, error) {
	count = c.ClampFrameCount(count)

	ctx, span := c.tracer.Start(ctx, "capture.frames", trace.WithAttributes(
		attribute.Int64("camera_id", cameraID),
		attribute.Int("requested", count),
	))
	defer span.End()

	frames := make([]string, 0, count)

	for i := 0; i < count; i++ {
		if i > 0 && interval > 0 {
			timer := time.NewTimer(interval)

			select {
			case <-ctx.Done():
				timer.Stop()
				span.SetAttributes(attribute.Int("captured", len(frames)))

				return frames, nil
			case <-timer.C:
			}
		}

		frame, err := c.CaptureFrame(ctx, cameraID)
		if err != nil {
			if len(frames) == 0 {
				span.RecordError(err)
				span.SetStatus(codes.Error, "first capture failed")

				return nil, err
			}

			c.log.Warn().
				Err(err).
				Int64("camera_id", cameraID).
				Int("captured", len(frames)).
				Int("requested", count).
				Msg("returning partial frame sequence")

			break
		}

		frames = append(frames, frame)
	}

	span.SetAttributes(attribute.Int("captured", len(frames)))

	return frames, nil
}
