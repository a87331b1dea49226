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

package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
	"github.com/carverauto/camview/pkg/transcoder/transcodertest"
)

type feeds map[int64]string

func (f feeds) ResolveFeed(_ context.Context, cameraID int64) (string, error) {
	feed, ok := f[cameraID]
	if !ok {
		return "", fmt.Errorf("camera %d: %w", cameraID, models.ErrNotFound)
	}

	if feed == "" {
		return "", fmt.Errorf("camera %d has no feed address: %w", cameraID, models.ErrValidation)
	}

	return feed, nil
}

// scripted hands out one-shot processes from a list of outcomes and records
// launch times.
type scripted struct {
	mu       sync.Mutex
	outcomes []outcome
	starts   []time.Time
}

type outcome struct {
	data []byte
	err  error
}

func (s *scripted) launcher() *transcodertest.Launcher {
	return &transcodertest.Launcher{
		OnLaunch: func([]string) (*transcodertest.Process, error) {
			s.mu.Lock()
			defer s.mu.Unlock()

			s.starts = append(s.starts, time.Now())

			next := s.outcomes[0]
			if len(s.outcomes) > 1 {
				s.outcomes = s.outcomes[1:]
			}

			return transcodertest.NewOneShot(len(s.starts), next.data, next.err), nil
		},
	}
}

func newCapturer(launcher *transcodertest.Launcher) *Capturer {
	cfg := models.DefaultServiceConfig()

	return New(&cfg.Capture, &cfg.Transcoder, feeds{1: "rtsp://cam/stream", 2: ""}, launcher, logger.NewTestLogger())
}

func TestCaptureFrameEncodesOutput(t *testing.T) {
	s := &scripted{outcomes: []outcome{{data: []byte{0xff, 0xd8, 0xff, 0xd9}}}}
	launcher := s.launcher()

	frame, err := newCapturer(launcher).CaptureFrame(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff, 0xd9}), frame)
	assert.Contains(t, launcher.Args(0), "-frames:v")
}

func TestCaptureFrameErrors(t *testing.T) {
	s := &scripted{outcomes: []outcome{{err: fmt.Errorf("%w: exit status 1", models.ErrSubprocess)}}}
	c := newCapturer(s.launcher())

	_, err := c.CaptureFrame(context.Background(), 42)
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = c.CaptureFrame(context.Background(), 2)
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = c.CaptureFrame(context.Background(), 1)
	require.ErrorIs(t, err, models.ErrSubprocess)
}

func TestCaptureFrameEmptyOutputFails(t *testing.T) {
	s := &scripted{outcomes: []outcome{{}}}

	_, err := newCapturer(s.launcher()).CaptureFrame(context.Background(), 1)
	require.ErrorIs(t, err, models.ErrSubprocess)
}

func TestCaptureFramesInOrderWithInterval(t *testing.T) {
	s := &scripted{outcomes: []outcome{
		{data: []byte("one")},
		{data: []byte("two")},
		{data: []byte("three")},
	}}

	interval := 40 * time.Millisecond

	frames, err := newCapturer(s.launcher()).CaptureFrames(context.Background(), 1, 3, interval)
	require.NoError(t, err)
	require.Len(t, frames, 3)

	for i, want := range []string{"one", "two", "three"} {
		raw, decodeErr := base64.StdEncoding.DecodeString(frames[i])
		require.NoError(t, decodeErr)
		assert.Equal(t, want, string(raw))
	}

	require.Len(t, s.starts, 3)
	assert.GreaterOrEqual(t, s.starts[1].Sub(s.starts[0]), interval)
	assert.GreaterOrEqual(t, s.starts[2].Sub(s.starts[1]), interval)
}

func TestCaptureFramesPartialOnLaterFailure(t *testing.T) {
	s := &scripted{outcomes: []outcome{
		{data: []byte("one")},
		{err: errors.New("rtsp timeout")},
	}}

	frames, err := newCapturer(s.launcher()).CaptureFrames(context.Background(), 1, 3, 0)
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

func TestCaptureFramesFirstFailurePropagates(t *testing.T) {
	s := &scripted{outcomes: []outcome{{err: fmt.Errorf("%w: refused", models.ErrSubprocess)}}}

	frames, err := newCapturer(s.launcher()).CaptureFrames(context.Background(), 1, 3, 0)
	require.ErrorIs(t, err, models.ErrSubprocess)
	assert.Nil(t, frames)
}

func TestClampFrameCount(t *testing.T) {
	c := newCapturer(&transcodertest.Launcher{})

	assert.Equal(t, 1, c.ClampFrameCount(0))
	assert.Equal(t, 1, c.ClampFrameCount(-3))
	assert.Equal(t, 4, c.ClampFrameCount(4))
	assert.Equal(t, 10, c.ClampFrameCount(25))
}

func TestCaptureFramesClampsCount(t *testing.T) {
	s := &scripted{outcomes: []outcome{{data: []byte("x")}}}
	launcher := s.launcher()

	frames, err := newCapturer(launcher).CaptureFrames(context.Background(), 1, 50, 0)
	require.NoError(t, err)
	assert.Len(t, frames, 10)
	assert.Equal(t, 10, launcher.Launches())
}
