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

import "encoding/json"

// ErrorResponse is the JSON body returned for every failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SnapshotResponse carries one captured frame.
type SnapshotResponse struct {
	CameraID int64  `json:"cameraId"`
	Image    string `json:"image"`
}

// SettingValue is the body of a settings update. Value may be any JSON
// scalar; strings are stored as-is and other values as their JSON text.
type SettingValue struct {
	Value json.RawMessage `json:"value"`
}

// StatusResponse is a generic acknowledgement.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
