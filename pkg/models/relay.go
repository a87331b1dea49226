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

import "time"

// StreamStats is a point-in-time view of one live relay entry.
type StreamStats struct {
	CameraID       int64     `json:"cameraId"`
	PID            int       `json:"pid"`
	Viewers        int       `json:"viewers"`
	BufferedChunks int       `json:"bufferedChunks"`
	ChunksOut      uint64    `json:"chunksOut"`
	BytesOut       uint64    `json:"bytesOut"`
	StartedAt      time.Time `json:"startedAt"`
	LastActivity   time.Time `json:"lastActivity"`
	CPUPercent     float64   `json:"cpuPercent,omitempty"`
	RSSBytes       uint64    `json:"rssBytes,omitempty"`
}
