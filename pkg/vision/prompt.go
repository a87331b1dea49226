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

package vision

import (
	"fmt"

	"github.com/carverauto/camview/pkg/models"
)

const (
	thinkPreamble = `Please analyze this image and provide your reasoning.
First, think step by step about what you see to improve your response, and share your thoughts in a "thoughts" key.
Then, provide the final answer in a "value" key.
The response should be in JSON format with keys "thoughts" and "value".`

	arrayPreamble = `Please analyze this image and provide a list of items.
Return your response as a JSON object with a "value" key containing an array.`

	framePreamble = `Attached is a single frame from a security camera. Assistant's task is to evaluate and respond to the following query:`

	framesPreamble = `Attached are %d frames from a security camera, taken in order. Assistant's task is to evaluate and respond to the following query:`
)

// BuildPrompt wraps the user prompt in the template selected by the query
// mode. Think mode wins over the array response type.
func BuildPrompt(q *models.VisionQuery, frames int) string {
	var preamble string

	switch {
	case q.Think:
		preamble = thinkPreamble
	case q.ResponseType == models.ResponseTypeArray:
		preamble = arrayPreamble
	case frames > 1:
		preamble = fmt.Sprintf(framesPreamble, frames)
	default:
		preamble = framePreamble
	}

	return preamble + "\n\n" + q.Prompt
}
