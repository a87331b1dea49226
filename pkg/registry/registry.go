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

package registry

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/carverauto/camview/pkg/db"
	"github.com/carverauto/camview/pkg/events"
	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
	"github.com/carverauto/camview/pkg/onvif"
)

const (
	deviceServicePath = "/onvif/device_service"
	fallbackFeedPath  = "/stream"

	reasonCameraChanged = "camera configuration changed"
	reasonCameraDeleted = "camera removed"
)

// Registry is the camera registry.
type Registry struct {
	store   db.CameraStore
	devices DeviceCache
	cfg     models.ONVIFConfig
	events  events.Publisher
	streams StreamStopper
	log     logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithPublisher sends camera lifecycle events to pub.
func WithPublisher(pub events.Publisher) Option {
	return func(r *Registry) { r.events = pub }
}

func New(store db.CameraStore, devices DeviceCache, cfg *models.ONVIFConfig, log logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:   store,
		devices: devices,
		events:  events.NopPublisher{},
		log:     log,
	}

	if cfg != nil {
		r.cfg = *cfg
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SetStreamStopper wires the relay after construction; the relay itself
// resolves feeds through the registry.
func (r *Registry) SetStreamStopper(s StreamStopper) {
	r.streams = s
}

// CacheKey is the connection-cache key of a camera name.
func CacheKey(name string) string {
	return "camera-" + name
}

// FeedAddress returns the camera feed URL with credentials embedded as
// userinfo when both halves are set.
func FeedAddress(camera *models.Camera) string {
	if camera.RTSPURL == "" || !camera.HasCredentials() {
		return camera.RTSPURL
	}

	u, err := url.Parse(camera.RTSPURL)
	if err != nil || u.Host == "" {
		return camera.RTSPURL
	}

	u.User = url.UserPassword(camera.Username, camera.Password)

	return u.String()
}

// List returns every camera ordered by id.
func (r *Registry) List(ctx context.Context) ([]*models.Camera, error) {
	return r.store.ListCameras(ctx)
}

// Get returns one camera.
func (r *Registry) Get(ctx context.Context, id int64) (*models.Camera, error) {
	return r.store.GetCamera(ctx, id)
}

// ResolveFeed returns the transcoder input address of a camera.
func (r *Registry) ResolveFeed(ctx context.Context, id int64) (string, error) {
	camera, err := r.store.GetCamera(ctx, id)
	if err != nil {
		return "", err
	}

	if camera.RTSPURL == "" {
		return "", fmt.Errorf("%w: RTSP URL not available for camera %d", models.ErrValidation, id)
	}

	return FeedAddress(camera), nil
}

func (r *Registry) deviceAddress(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return "http://" + host + deviceServicePath
	}

	return "http://" + net.JoinHostPort(host, strconv.Itoa(r.cfg.DefaultPort)) + deviceServicePath
}

func (r *Registry) fallbackFeed(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	return "rtsp://" + net.JoinHostPort(host, strconv.Itoa(r.cfg.DefaultRTSPPort)) + fallbackFeedPath
}

// Register connects to a camera by host, discovers its feed and control
// addresses and stores it.
func (r *Registry) Register(ctx context.Context, reg *models.CameraRegistration) (*models.Camera, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: registration is required", models.ErrValidation)
	}

	name := strings.TrimSpace(reg.Name)
	host := strings.TrimSpace(reg.Host)

	if name == "" || host == "" {
		return nil, fmt.Errorf("%w: name and host are required", models.ErrValidation)
	}

	address := r.deviceAddress(host)

	sess, err := r.devices.GetDevice(ctx, address, reg.Username, reg.Password, CacheKey(name))
	if err != nil {
		return nil, fmt.Errorf("connect to camera %q at %s: %w", name, address, err)
	}

	feed, err := sess.StreamURI(ctx)
	if err != nil {
		feed = r.fallbackFeed(host)

		r.log.Warn().Err(err).Str("camera", name).Str("rtsp_url", feed).Msg("stream URI lookup failed, using default feed path")
	}

	control := sess.ControlAddress()
	if control == "" {
		control = address
	}

	camera, err := r.store.CreateCamera(ctx, &models.Camera{
		Name:     name,
		RTSPURL:  feed,
		ONVIFURL: control,
		Username: reg.Username,
		Password: reg.Password,
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().Int64("camera_id", camera.ID).Str("camera", name).Msg("camera registered")
	r.publish(ctx, camera, models.CameraRegistered)

	return camera, nil
}

// Update replaces the mutable fields of a camera and drops any state derived
// from the old record.
func (r *Registry) Update(ctx context.Context, id int64, update *models.CameraUpdate) (*models.Camera, error) {
	if update == nil || strings.TrimSpace(update.Name) == "" || strings.TrimSpace(update.RTSPURL) == "" {
		return nil, fmt.Errorf("%w: name and rtspUrl are required", models.ErrValidation)
	}

	previous, err := r.store.GetCamera(ctx, id)
	if err != nil {
		return nil, err
	}

	camera, err := r.store.UpdateCamera(ctx, id, update)
	if err != nil {
		return nil, err
	}

	r.forget(previous, reasonCameraChanged)

	if camera.Name != previous.Name {
		r.devices.Evict(CacheKey(camera.Name))
	}

	r.log.Info().Int64("camera_id", id).Msg("camera updated")
	r.publish(ctx, camera, models.CameraUpdated)

	return camera, nil
}

// Delete removes a camera.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	camera, err := r.store.GetCamera(ctx, id)
	if err != nil {
		return err
	}

	if err := r.store.DeleteCamera(ctx, id); err != nil {
		return err
	}

	r.forget(camera, reasonCameraDeleted)

	r.log.Info().Int64("camera_id", id).Msg("camera deleted")
	r.publish(ctx, camera, models.CameraDeleted)

	return nil
}

func (r *Registry) forget(camera *models.Camera, reason string) {
	r.devices.Evict(CacheKey(camera.Name))

	if r.streams != nil {
		r.streams.Stop(camera.ID, reason)
	}
}

// Session returns the control session of a camera.
func (r *Registry) Session(ctx context.Context, id int64) (onvif.Session, error) {
	camera, err := r.store.GetCamera(ctx, id)
	if err != nil {
		return nil, err
	}

	if camera.ONVIFURL == "" {
		return nil, fmt.Errorf("%w: camera %d has no ONVIF address", models.ErrValidation, id)
	}

	return r.devices.GetDevice(ctx, camera.ONVIFURL, camera.Username, camera.Password, CacheKey(camera.Name))
}

// Control applies a PTZ command to a camera.
func (r *Registry) Control(ctx context.Context, id int64, cmd models.PTZCommand) error {
	sess, err := r.Session(ctx, id)
	if err != nil {
		return err
	}

	if err := onvif.Control(ctx, sess, cmd); err != nil {
		return err
	}

	r.log.Debug().Int64("camera_id", id).Str("command", cmd.Command).Float64("speed", cmd.Speed).Msg("PTZ command sent")

	return nil
}

// Reconnect opens a control session for every stored camera with an ONVIF
// address and returns how many succeeded. Per-camera failures are logged.
func (r *Registry) Reconnect(ctx context.Context) (int, error) {
	cameras, err := r.store.ListCameras(ctx)
	if err != nil {
		return 0, err
	}

	connected := 0

	for _, camera := range cameras {
		if camera.ONVIFURL == "" {
			continue
		}

		if _, err := r.devices.GetDevice(ctx, camera.ONVIFURL, camera.Username, camera.Password, CacheKey(camera.Name)); err != nil {
			if ctx.Err() != nil {
				return connected, ctx.Err()
			}

			r.log.Warn().Err(err).Int64("camera_id", camera.ID).Str("camera", camera.Name).Msg("failed to reconnect camera")

			continue
		}

		connected++
	}

	r.log.Info().Int("connected", connected).Int("cameras", len(cameras)).Msg("camera reconnect finished")

	return connected, nil
}

func (r *Registry) publish(ctx context.Context, camera *models.Camera, action string) {
	err := r.events.PublishCameraEvent(context.WithoutCancel(ctx), &models.CameraEventData{
		CameraID: camera.ID,
		Name:     camera.Name,
		Action:   action,
	})
	if err != nil {
		r.log.Warn().Err(err).Int64("camera_id", camera.ID).Str("action", action).Msg("failed to publish camera event")
	}
}
