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
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

type fakeFrames struct {
	frames   []string
	err      error
	count    int
	interval time.Duration
}

func (f *fakeFrames) CaptureFrames(_ context.Context, _ int64, count int, interval time.Duration) ([]string, error) {
	f.count = count
	f.interval = interval

	if f.err != nil {
		return nil, f.err
	}

	return f.frames[:min(count, len(f.frames))], nil
}

func (*fakeFrames) ClampFrameCount(count int) int {
	return max(1, min(count, 10))
}

type fakeSettings struct {
	host  string
	model string
}

func (s fakeSettings) VisionHost(context.Context) (string, error)  { return s.host, nil }
func (s fakeSettings) VisionModel(context.Context) (string, error) { return s.model, nil }

type generateBody struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Format  json.RawMessage        `json:"format"`
	Images  []string               `json:"images"`
	Options map[string]interface{} `json:"options"`
}

func ollamaServer(t *testing.T, seen *generateBody, parts ...string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}

		assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))

		w.Header().Set("Content-Type", "application/x-ndjson")

		enc := json.NewEncoder(w)
		for _, part := range parts {
			_ = enc.Encode(map[string]interface{}{"model": seen.Model, "response": part, "done": false})
		}

		_ = enc.Encode(map[string]interface{}{
			"model":             seen.Model,
			"response":          "",
			"done":              true,
			"prompt_eval_count": 600,
			"eval_count":        12,
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func jpeg(tag string) string {
	return base64.StdEncoding.EncodeToString([]byte("\xff\xd8" + tag + "\xff\xd9"))
}

func TestQueryStreamsImagesThenTokens(t *testing.T) {
	var seen generateBody

	srv := ollamaServer(t, &seen, `{"value":`, ` "two cars"}`)
	frames := &fakeFrames{frames: []string{jpeg("a"), jpeg("b")}}
	svc := New(frames, fakeSettings{host: srv.URL, model: "llava:13b"},
		&models.VisionConfig{FrameInterval: models.Duration(time.Second)}, logger.NewTestLogger())

	var out bytes.Buffer

	usage, err := svc.Query(context.Background(), &models.VisionQuery{
		Prompt:     "How many cars?",
		CameraID:   3,
		FrameCount: 2,
	}, &out)
	require.NoError(t, err)

	lines := strings.SplitN(out.String(), "\n", 3)
	require.Len(t, lines, 3)
	assert.Equal(t, "data:image/jpeg;base64,"+jpeg("a"), lines[0])
	assert.Equal(t, "data:image/jpeg;base64,"+jpeg("b"), lines[1])
	assert.Equal(t, `{"value": "two cars"}`, lines[2])

	assert.Equal(t, 2, frames.count)
	assert.Equal(t, time.Second, frames.interval)

	assert.Equal(t, "llava:13b", seen.Model)
	assert.JSONEq(t, `"json"`, string(seen.Format))
	assert.Equal(t, []string{jpeg("a"), jpeg("b")}, seen.Images)
	assert.InDelta(t, 0.05, seen.Options["temperature"], 1e-9)
	assert.InDelta(t, 512, seen.Options["num_predict"], 0)
	assert.True(t, strings.HasSuffix(seen.Prompt, "How many cars?"))

	assert.Equal(t, 600, usage.PromptEvalCount)
	assert.Equal(t, 12, usage.EvalCount)
	assert.Equal(t, 612, usage.TotalTokens())
	assert.Equal(t, 2, usage.Frames)
}

func TestQueryCustomPromptOmitsFormat(t *testing.T) {
	var seen generateBody

	srv := ollamaServer(t, &seen, "free text")
	svc := New(&fakeFrames{frames: []string{jpeg("a")}}, fakeSettings{host: srv.URL, model: "m"}, nil, logger.NewTestLogger())

	var out bytes.Buffer

	_, err := svc.Query(context.Background(), &models.VisionQuery{Prompt: "describe", CameraID: 1, IsCustom: true}, &out)
	require.NoError(t, err)

	assert.Empty(t, seen.Format)
	assert.True(t, strings.HasSuffix(out.String(), "\nfree text"))
}

func TestQueryValidation(t *testing.T) {
	frames := &fakeFrames{frames: []string{jpeg("a")}}

	tests := []struct {
		name     string
		settings fakeSettings
		query    *models.VisionQuery
		want     error
	}{
		{"no host", fakeSettings{model: "m"}, &models.VisionQuery{Prompt: "p", CameraID: 1}, models.ErrConfiguration},
		{"no model", fakeSettings{host: "http://h"}, &models.VisionQuery{Prompt: "p", CameraID: 1}, models.ErrConfiguration},
		{"no prompt", fakeSettings{host: "http://h", model: "m"}, &models.VisionQuery{CameraID: 1}, models.ErrValidation},
		{"no camera", fakeSettings{host: "http://h", model: "m"}, &models.VisionQuery{Prompt: "p"}, models.ErrValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(frames, tc.settings, nil, logger.NewTestLogger())

			var out bytes.Buffer

			_, err := svc.Query(context.Background(), tc.query, &out)
			require.ErrorIs(t, err, tc.want)
			assert.Zero(t, out.Len())
		})
	}
}

func TestQueryCaptureFailureWritesNothing(t *testing.T) {
	frames := &fakeFrames{err: fmt.Errorf("%w: ffmpeg exited 1", models.ErrSubprocess)}
	svc := New(frames, fakeSettings{host: "http://127.0.0.1:1", model: "m"}, nil, logger.NewTestLogger())

	var out bytes.Buffer

	_, err := svc.Query(context.Background(), &models.VisionQuery{Prompt: "p", CameraID: 1}, &out)
	require.ErrorIs(t, err, models.ErrSubprocess)
	assert.Zero(t, out.Len())
}

func TestQueryModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"m\" not found"}`))
	}))
	t.Cleanup(srv.Close)

	svc := New(&fakeFrames{frames: []string{jpeg("a")}}, fakeSettings{host: srv.URL, model: "m"}, nil, logger.NewTestLogger())

	var out bytes.Buffer

	_, err := svc.Query(context.Background(), &models.VisionQuery{Prompt: "p", CameraID: 1}, &out)
	require.ErrorIs(t, err, models.ErrUpstreamConnection)
	assert.True(t, strings.HasPrefix(out.String(), "data:image/jpeg;base64,"))
}

func TestBuildPrompt(t *testing.T) {
	think := BuildPrompt(&models.VisionQuery{Prompt: "Is the door open?", Think: true, ResponseType: models.ResponseTypeArray}, 1)
	assert.Contains(t, think, `"thoughts"`)
	assert.True(t, strings.HasSuffix(think, "\n\nIs the door open?"))

	array := BuildPrompt(&models.VisionQuery{Prompt: "List vehicles", ResponseType: models.ResponseTypeArray}, 1)
	assert.Contains(t, array, "containing an array")

	single := BuildPrompt(&models.VisionQuery{Prompt: "Anyone there?"}, 1)
	assert.True(t, strings.HasPrefix(single, "Attached is a single frame from a security camera."))

	multi := BuildPrompt(&models.VisionQuery{Prompt: "Anyone there?"}, 3)
	assert.True(t, strings.HasPrefix(multi, "Attached are 3 frames"))
}

func TestEndpointAddsScheme(t *testing.T) {
	svc := New(&fakeFrames{}, fakeSettings{host: "gpu-box:11434", model: "m"}, nil, logger.NewTestLogger())

	base, model, err := svc.endpoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", base.String())
	assert.Equal(t, "m", model)
}

