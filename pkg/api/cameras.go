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
	"net/http"

	"github.com/carverauto/camview/pkg/models"
)

func (s *APIServer) listCameras(w http.ResponseWriter, r *http.Request) {
	if s.cameras == nil {
		s.unavailable(w, r, "camera registry")
		return
	}

	cameras, err := s.cameras.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cameras)
}

func (s *APIServer) registerCamera(w http.ResponseWriter, r *http.Request) {
	if s.cameras == nil {
		s.unavailable(w, r, "camera registry")
		return
	}

	var reg models.CameraRegistration
	if err := decodeBody(w, r, &reg); err != nil {
		s.writeError(w, r, err)
		return
	}

	camera, err := s.cameras.Register(r.Context(), &reg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, camera)
}

func (s *APIServer) updateCamera(w http.ResponseWriter, r *http.Request) {
	if s.cameras == nil {
		s.unavailable(w, r, "camera registry")
		return
	}

	id, err := cameraID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var update models.CameraUpdate
	if err := decodeBody(w, r, &update); err != nil {
		s.writeError(w, r, err)
		return
	}

	camera, err := s.cameras.Update(r.Context(), id, &update)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, camera)
}

func (s *APIServer) deleteCamera(w http.ResponseWriter, r *http.Request) {
	if s.cameras == nil {
		s.unavailable(w, r, "camera registry")
		return
	}

	id, err := cameraID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.cameras.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "deleted"})
}

func (s *APIServer) probeCamera(w http.ResponseWriter, r *http.Request) {
	if s.cameras == nil || s.prober == nil {
		s.unavailable(w, r, "feed probe")
		return
	}

	id, err := cameraID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	feed, err := s.cameras.ResolveFeed(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	desc, err := s.prober.Probe(r.Context(), id, feed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, desc)
}

func (s *APIServer) snapshotCamera(w http.ResponseWriter, r *http.Request) {
	if s.capture == nil {
		s.unavailable(w, r, "frame capture")
		return
	}

	id, err := cameraID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	image, err := s.capture.CaptureFrame(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SnapshotResponse{CameraID: id, Image: image})
}

func (s *APIServer) controlCamera(w http.ResponseWriter, r *http.Request) {
	if s.cameras == nil {
		s.unavailable(w, r, "camera registry")
		return
	}

	id, err := cameraID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var cmd models.PTZCommand
	if err := decodeBody(w, r, &cmd); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.cameras.Control(r.Context(), id, cmd); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok", Message: cmd.Command})
}

func (s *APIServer) discoverDevices(w http.ResponseWriter, r *http.Request) {
	if s.discoverer == nil {
		s.unavailable(w, r, "ONVIF discovery")
		return
	}

	devices, err := s.discoverer.Discover(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, devices)
}
