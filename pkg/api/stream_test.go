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
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
	"github.com/carverauto/camview/pkg/relay"
	"github.com/carverauto/camview/pkg/transcoder/transcodertest"
)

const streamWait = 2 * time.Second

type staticFeeds map[int64]string

func (f staticFeeds) ResolveFeed(_ context.Context, cameraID int64) (string, error) {
	feed, ok := f[cameraID]
	if !ok {
		return "", fmt.Errorf("camera %d: %w", cameraID, models.ErrNotFound)
	}

	return feed, nil
}

type closePolicy struct{}

func (closePolicy) KeepStreamsOpen(context.Context) bool { return false }

func newStreamServer(t *testing.T) (*httptest.Server, *transcodertest.Launcher) {
	t.Helper()

	cfg := models.DefaultServiceConfig()
	launcher := &transcodertest.Launcher{}
	feeds := staticFeeds{1: "rtsp://10.0.0.1/live"}

	r := relay.New(&cfg.Relay, &cfg.Transcoder, feeds, closePolicy{}, launcher, logger.NewTestLogger())
	t.Cleanup(func() { _ = r.Close() })

	s := NewAPIServer(models.CORSConfig{}, logger.NewTestLogger(), WithRelay(r))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return srv, launcher
}

func dialStream(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream/" + id

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readStreamError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(streamWait)))

	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)

	var msg StreamMessage
	require.NoError(t, json.Unmarshal(data, &msg))

	return msg.Error
}

func TestStreamDeliversChunks(t *testing.T) {
	srv, launcher := newStreamServer(t)
	conn := dialStream(t, srv, "1")

	require.Eventually(t, func() bool { return launcher.Launches() == 1 }, streamWait, 10*time.Millisecond)

	proc := launcher.Process(0)
	require.NoError(t, proc.Emit([]byte("\xff\xd8frame\xff\xd9")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(streamWait)))

	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, "\xff\xd8frame\xff\xd9", string(data))

	proc.Exit(nil)

	assert.Equal(t, "stream ended", readStreamError(t, conn))

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected read error: %v", err)
}

func TestStreamUnknownCamera(t *testing.T) {
	srv, launcher := newStreamServer(t)
	conn := dialStream(t, srv, "9")

	assert.Contains(t, readStreamError(t, conn), "not found")
	assert.Equal(t, 0, launcher.Launches())
}

func TestStreamDisconnectKillsTranscoder(t *testing.T) {
	srv, launcher := newStreamServer(t)
	conn := dialStream(t, srv, "1")

	require.Eventually(t, func() bool { return launcher.Launches() == 1 }, streamWait, 10*time.Millisecond)

	proc := launcher.Process(0)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.NoError(t, conn.Close())

	require.Eventually(t, proc.Killed, streamWait, 10*time.Millisecond)
}
