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

// Package vision runs vision-language model queries against camera frames
// through the Ollama generate API.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

const (
	tracerName = "github.com/carverauto/camview/pkg/vision"

	imageLinePrefix = "data:image/jpeg;base64,"

	temperature = 0.05
	numPredict  = 512
)

// FrameSource captures base64 JPEG frames of a camera.
type FrameSource interface {
	CaptureFrames(ctx context.Context, cameraID int64, count int, interval time.Duration) ([]string, error)
	ClampFrameCount(count int) int
}

// ModelSettings supplies the Ollama endpoint and model.
type ModelSettings interface {
	VisionHost(ctx context.Context) (string, error)
	VisionModel(ctx context.Context) (string, error)
}

// Service answers vision queries.
type Service struct {
	frames   FrameSource
	settings ModelSettings
	cfg      models.VisionConfig
	client   *http.Client
	log      logger.Logger
	tracer   trace.Tracer
}

func New(frames FrameSource, settings ModelSettings, cfg *models.VisionConfig, log logger.Logger) *Service {
	s := &Service{
		frames:   frames,
		settings: settings,
		log:      log,
		tracer:   logger.GetTracer(tracerName),
	}

	if cfg != nil {
		s.cfg = *cfg
	}

	s.client = &http.Client{Timeout: time.Duration(s.cfg.RequestTimeout)}

	return s
}

func (s *Service) endpoint(ctx context.Context) (*url.URL, string, error) {
	host, err := s.settings.VisionHost(ctx)
	if err != nil {
		return nil, "", err
	}

	if host == "" {
		return nil, "", fmt.Errorf("%w: Ollama host is not configured", models.ErrConfiguration)
	}

	model, err := s.settings.VisionModel(ctx)
	if err != nil {
		return nil, "", err
	}

	if model == "" {
		return nil, "", fmt.Errorf("%w: Ollama model is not configured", models.ErrConfiguration)
	}

	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	base, err := url.Parse(host)
	if err != nil {
		return nil, "", fmt.Errorf("%w: Ollama host %q: %w", models.ErrConfiguration, host, err)
	}

	return base, model, nil
}

// Query captures frames of the requested camera, writes each one to sink as
// a data URI line and then streams the model's response tokens to sink.
func (s *Service) Query(ctx context.Context, q *models.VisionQuery, sink io.Writer) (*models.VisionUsage, error) {
	base, model, err := s.endpoint(ctx)
	if err != nil {
		return nil, err
	}

	if q == nil || strings.TrimSpace(q.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", models.ErrValidation)
	}

	if q.CameraID == 0 {
		return nil, fmt.Errorf("%w: camera id is required", models.ErrValidation)
	}

	ctx, span := s.tracer.Start(ctx, "vision.Query", trace.WithAttributes(
		attribute.Int64("camera.id", q.CameraID),
		attribute.String("vision.model", model),
	))
	defer span.End()

	count := s.frames.ClampFrameCount(q.FrameCount)

	frames, err := s.frames.CaptureFrames(ctx, q.CameraID, count, time.Duration(s.cfg.FrameInterval))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	images := make([]api.ImageData, 0, len(frames))

	for _, frame := range frames {
		raw, err := base64.StdEncoding.DecodeString(frame)
		if err != nil {
			return nil, fmt.Errorf("decode captured frame: %w", err)
		}

		images = append(images, raw)

		if _, err := io.WriteString(sink, imageLinePrefix+frame+"\n"); err != nil {
			return nil, err
		}
	}

	flush(sink)

	req := &api.GenerateRequest{
		Model:  model,
		Prompt: BuildPrompt(q, len(frames)),
		Images: images,
		Options: map[string]interface{}{
			"temperature": temperature,
			"num_predict": numPredict,
		},
	}

	if !q.IsCustom {
		req.Format = json.RawMessage(`"json"`)
	}

	usage := &models.VisionUsage{Model: model, Frames: len(frames)}

	err = api.NewClient(base, s.client).Generate(ctx, req, func(resp api.GenerateResponse) error {
		if resp.Response != "" {
			if _, err := io.WriteString(sink, resp.Response); err != nil {
				return err
			}

			flush(sink)
		}

		if resp.Done {
			usage.PromptEvalCount = resp.PromptEvalCount
			usage.EvalCount = resp.EvalCount
		}

		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return usage, fmt.Errorf("%w: generate with %s: %w", models.ErrUpstreamConnection, model, err)
	}

	span.SetAttributes(attribute.Int("vision.tokens", usage.TotalTokens()))

	s.log.Info().
		Int64("camera_id", q.CameraID).
		Str("model", model).
		Int("frames", usage.Frames).
		Int("prompt_tokens", usage.PromptEvalCount).
		Int("eval_tokens", usage.EvalCount).
		Int("total_tokens", usage.TotalTokens()).
		Msg("vision query finished")

	return usage, nil
}

func flush(w io.Writer) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
