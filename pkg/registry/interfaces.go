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

// Package registry manages camera records and the device state derived from
// them, such as control sessions and running streams.
package registry

import (
	"context"

	"github.com/carverauto/camview/pkg/onvif"
)

// DeviceCache hands out control sessions keyed by camera.
type DeviceCache interface {
	GetDevice(ctx context.Context, address, username, password, cacheKey string) (onvif.Session, error)
	Evict(cacheKey string)
}

// StreamStopper ends the live stream of a camera.
type StreamStopper interface {
	Stop(cameraID int64, reason string)
}

var _ DeviceCache = (*onvif.Cache)(nil)
