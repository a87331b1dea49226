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

// Vision response shapes.
const (
	ResponseTypeString = "string"
	ResponseTypeArray  = "array"
)

// VisionQuery is a prompt to run against frames of one camera.
type VisionQuery struct {
	Prompt       string `json:"prompt"`
	CameraID     int64  `json:"cameraId"`
	ResponseType string `json:"responseType,omitempty"`
	Think        bool   `json:"think,omitempty"`
	IsCustom     bool   `json:"isCustom,omitempty"`
	FrameCount   int    `json:"frameCount,omitempty"`
}

// VisionUsage summarizes the token usage of one query.
type VisionUsage struct {
	Model           string `json:"model"`
	PromptEvalCount int    `json:"promptEvalCount"`
	EvalCount       int    `json:"evalCount"`
	Frames          int    `json:"frames"`
}

// TotalTokens is the sum of prompt and generated tokens.
func (u VisionUsage) TotalTokens() int {
	return u.PromptEvalCount + u.EvalCount
}
