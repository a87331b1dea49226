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

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// Camera lifecycle actions.
const (
	CameraRegistered = "registered"
	CameraUpdated    = "updated"
	CameraDeleted    = "deleted"
)

// CameraEventData is the payload of a camera lifecycle event.
type CameraEventData struct {
	CameraID  int64     `json:"camera_id"`
	Name      string    `json:"name"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Stream lifecycle actions.
const (
	StreamStarted = "started"
	StreamStopped = "stopped"
)

// StreamEventData is the payload of a relay lifecycle event.
type StreamEventData struct {
	CameraID  int64     `json:"camera_id"`
	Action    string    `json:"action"`
	PID       int       `json:"pid,omitempty"`
	Viewers   int       `json:"viewers"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
