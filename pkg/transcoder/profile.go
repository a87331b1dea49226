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

// Package transcoder builds and runs the ffmpeg command lines used for live
// MJPEG relays and one-shot still captures.
package transcoder

import (
	"net/url"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/carverauto/camview/pkg/models"
)

const stdoutPipe = "pipe:1"

func inputArgs(cfg *models.TranscoderConfig) ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"rtsp_transport": cfg.RTSPTransport,
		"buffer_size":    cfg.BufferSize,
		"loglevel":       "error",
	}
}

// StreamArgs returns the ffmpeg arguments that transcode feedURL into a
// continuous MJPEG stream on stdout.
func StreamArgs(cfg *models.TranscoderConfig, feedURL string) []string {
	return ffmpeg.Input(feedURL, inputArgs(cfg)).
		Output(stdoutPipe, ffmpeg.KwArgs{
			"f":   "mjpeg",
			"q:v": cfg.Quality,
			"r":   cfg.FrameRate,
			"s":   cfg.Resolution,
		}).
		GetArgs()
}

// SnapshotArgs returns the ffmpeg arguments that write exactly one JPEG frame
// from feedURL to stdout.
func SnapshotArgs(cfg *models.TranscoderConfig, feedURL string) []string {
	return ffmpeg.Input(feedURL, inputArgs(cfg)).
		Output(stdoutPipe, ffmpeg.KwArgs{
			"frames:v": 1,
			"f":        "image2",
			"c:v":      "mjpeg",
			"q:v":      cfg.SnapshotQuality,
		}).
		GetArgs()
}

// Redact masks the password of any URL-looking argument so command lines can
// be logged.
func Redact(args []string) string {
	out := make([]string, len(args))

	for i, arg := range args {
		out[i] = arg

		if !strings.Contains(arg, "://") {
			continue
		}

		if u, err := url.Parse(arg); err == nil && u.User != nil {
			out[i] = u.Redacted()
		}
	}

	return strings.Join(out, " ")
}
