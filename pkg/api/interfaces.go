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

package api

import (
	"context"
	"io"

	"github.com/carverauto/camview/pkg/models"
	"github.com/carverauto/camview/pkg/relay"
)

// CameraService is the camera registry as seen by the API.
type CameraService interface {
	List(ctx context.Context) ([]*models.Camera, error)
	Get(ctx context.Context, id int64) (*models.Camera, error)
	Register(ctx context.Context, reg *models.CameraRegistration) (*models.Camera, error)
	Update(ctx context.Context, id int64, update *models.CameraUpdate) (*models.Camera, error)
	Delete(ctx context.Context, id int64) error
	ResolveFeed(ctx context.Context, id int64) (string, error)
	Control(ctx context.Context, id int64, cmd models.PTZCommand) error
}

// StreamRelay fans camera streams out to viewers.
type StreamRelay interface {
	Attach(ctx context.Context, cameraID int64, viewer relay.Viewer) error
	Detach(ctx context.Context, cameraID int64, viewer relay.Viewer)
	Stats(ctx context.Context) []models.StreamStats
}

// FrameCapturer grabs one still frame.
type FrameCapturer interface {
	CaptureFrame(ctx context.Context, cameraID int64) (string, error)
}

// SettingsService reads and writes application settings.
type SettingsService interface {
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// VisionService answers vision queries, streaming output to sink.
type VisionService interface {
	Query(ctx context.Context, q *models.VisionQuery, sink io.Writer) (*models.VisionUsage, error)
}

// FeedProber describes a camera feed.
type FeedProber interface {
	Probe(ctx context.Context, cameraID int64, feed string) (*models.FeedDescription, error)
}

// DeviceDiscoverer finds cameras on the local network.
type DeviceDiscoverer interface {
	Discover(ctx context.Context) ([]models.DiscoveredDevice, error)
}
