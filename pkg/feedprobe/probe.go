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

// Package feedprobe inspects RTSP feeds with an RTSP DESCRIBE request.
package feedprobe

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bluenviron/gortsplib/v5"
	"github.com/bluenviron/gortsplib/v5/pkg/base"
	"github.com/bluenviron/gortsplib/v5/pkg/description"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

const defaultTimeout = 10 * time.Second

// Prober describes feeds.
type Prober struct {
	Timeout time.Duration
	Logger  logger.Logger
}

func NewProber(timeout time.Duration, log logger.Logger) *Prober {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Prober{Timeout: timeout, Logger: log}
}

// ValidateFeedURL checks that feed is an rtsp:// or rtsps:// URL with a host.
func ValidateFeedURL(feed string) (*base.URL, error) {
	if !strings.HasPrefix(feed, "rtsp://") && !strings.HasPrefix(feed, "rtsps://") {
		return nil, fmt.Errorf("%w: feed URL must use rtsp or rtsps", models.ErrValidation)
	}

	u, err := base.ParseURL(feed)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid feed URL: %w", models.ErrValidation, err)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: feed URL has no host", models.ErrValidation)
	}

	return u, nil
}

// Probe connects to feed, issues DESCRIBE and reports its media tracks.
func (p *Prober) Probe(ctx context.Context, cameraID int64, feed string) (*models.FeedDescription, error) {
	u, err := ValidateFeedURL(feed)
	if err != nil {
		return nil, err
	}

	client := &gortsplib.Client{
		Scheme:       u.Scheme,
		Host:         u.Host,
		ReadTimeout:  p.Timeout,
		WriteTimeout: p.Timeout,
	}

	if err := client.Start(); err != nil {
		return nil, fmt.Errorf("%w: connect to %s: %w", models.ErrUpstreamConnection, u.Host, err)
	}

	type result struct {
		desc *description.Session
		err  error
	}

	done := make(chan result, 1)

	go func() {
		desc, _, err := client.Describe(u)
		done <- result{desc, err}
	}()

	var res result

	select {
	case <-ctx.Done():
		client.Close()
		<-done

		return nil, ctx.Err()
	case res = <-done:
		client.Close()
	}

	if res.err != nil {
		return nil, fmt.Errorf("%w: describe %s: %w", models.ErrUpstreamConnection, redact(feed), res.err)
	}

	out := Describe(cameraID, res.desc)

	p.Logger.Debug().
		Int64("camera_id", cameraID).
		Int("tracks", len(out.Tracks)).
		Msg("feed described")

	return out, nil
}

// Describe converts a session description into the API shape.
func Describe(cameraID int64, desc *description.Session) *models.FeedDescription {
	out := &models.FeedDescription{
		CameraID: cameraID,
		Tracks:   []models.MediaTrack{},
	}

	if desc == nil {
		return out
	}

	out.Title = desc.Title

	for _, media := range desc.Medias {
		track := models.MediaTrack{
			Type:    string(media.Type),
			Control: media.Control,
			Codecs:  make([]string, 0, len(media.Formats)),
		}

		for _, f := range media.Formats {
			track.Codecs = append(track.Codecs, f.Codec())
		}

		out.Tracks = append(out.Tracks, track)
	}

	return out
}

func redact(feed string) string {
	u, err := url.Parse(feed)
	if err != nil || u.User == nil {
		return feed
	}

	return strings.Replace(u.Redacted(), ":xxxxx@", ":***@", 1)
}
