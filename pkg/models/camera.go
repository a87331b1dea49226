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

// Camera is a registered IP camera.
type Camera struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RTSPURL   string    `json:"rtspUrl"`
	ONVIFURL  string    `json:"onvifUrl,omitempty"`
	Username  string    `json:"username,omitempty"`
	Password  string    `json:"password,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasCredentials reports whether both halves of the credential pair are set.
func (c *Camera) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// CameraRegistration is the payload accepted when adding a camera by host.
type CameraRegistration struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// CameraUpdate replaces the mutable fields of a stored camera.
type CameraUpdate struct {
	Name     string `json:"name"`
	RTSPURL  string `json:"rtspUrl"`
	ONVIFURL string `json:"onvifUrl"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// PTZCommand is a pan/tilt/zoom request for a camera.
type PTZCommand struct {
	Command string  `json:"command"`
	Speed   float64 `json:"speed"`
}

// Supported PTZ commands.
const (
	PTZMoveUp    = "moveUp"
	PTZMoveDown  = "moveDown"
	PTZMoveLeft  = "moveLeft"
	PTZMoveRight = "moveRight"
	PTZZoomIn    = "zoomIn"
	PTZZoomOut   = "zoomOut"
	PTZStop      = "stop"
)

// DiscoveredDevice is an ONVIF device answering a WS-Discovery probe.
type DiscoveredDevice struct {
	Address      string `json:"address"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Firmware     string `json:"firmware,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	HardwareID   string `json:"hardwareId,omitempty"`
}

// MediaTrack describes one media section of an RTSP feed.
type MediaTrack struct {
	Type    string   `json:"type"`
	Control string   `json:"control,omitempty"`
	Codecs  []string `json:"codecs"`
}

// FeedDescription is the result of probing a camera feed.
type FeedDescription struct {
	CameraID int64        `json:"cameraId"`
	Title    string       `json:"title,omitempty"`
	Tracks   []MediaTrack `json:"tracks"`
}
