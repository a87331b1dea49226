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

package models

import "errors"

// Error taxonomy shared by every component. Callers wrap these with %w and
// classify them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrUpstreamConnection = errors.New("upstream connection error")
	ErrSubprocess         = errors.New("subprocess error")
	ErrConfiguration      = errors.New("configuration error")
)

var (
	errInvalidDuration      = errors.New("invalid duration")
	errListenAddrRequired   = errors.New("listen address is required")
	errDatabaseHostRequired = errors.New("database host is required")
	errDatabaseNameRequired = errors.New("database name is required")
	errNATSURLRequired      = errors.New("nats url is required")
	errStreamNameRequired   = errors.New("events.stream_name is required when events are enabled")
	errReplayChunksInvalid  = errors.New("relay.replay_chunks must be positive")
	errIdleTimeoutInvalid   = errors.New("relay.idle_timeout must be positive")
	errSweepIntervalInvalid = errors.New("relay.sweep_interval must be positive")
	errCaptureBoundsInvalid = errors.New("capture.min_frames must be between 1 and capture.max_frames")
	errFFmpegPathRequired   = errors.New("transcoder.ffmpeg_path is required")
	errONVIFPortInvalid     = errors.New("onvif.default_port must be between 1 and 65535")
)
