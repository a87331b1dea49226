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
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/carverauto/camview/pkg/models"
)

func (s *APIServer) getSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		s.unavailable(w, r, "settings")
		return
	}

	all, err := s.settings.All(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, all)
}

func (s *APIServer) putSetting(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		s.unavailable(w, r, "settings")
		return
	}

	key := mux.Vars(r)["key"]

	var body models.SettingValue
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	value, err := settingText(body.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.settings.Set(r.Context(), key, value); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.Setting{Key: key, Value: value})
}

// settingText converts a JSON value to its stored form: strings verbatim,
// anything else as its JSON text. Missing and null values are rejected.
func settingText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: value is required", models.ErrValidation)
	}

	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", fmt.Errorf("%w: invalid value: %w", models.ErrValidation, err)
		}

		return text, nil
	}

	return string(raw), nil
}

func (s *APIServer) listStreams(w http.ResponseWriter, r *http.Request) {
	if s.relay == nil {
		s.unavailable(w, r, "stream relay")
		return
	}

	writeJSON(w, http.StatusOK, s.relay.Stats(r.Context()))
}
