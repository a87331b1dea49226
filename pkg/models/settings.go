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

// Known settings keys.
const (
	SettingKeepStreamsOpen = "keep_streams_open"
	SettingOllamaHost      = "ollamaHost"
	SettingOllamaModel     = "ollamaModel"
)

// Setting is a single key/value pair from the settings store.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
