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
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	cvhttp "github.com/carverauto/camview/pkg/http"
	"github.com/carverauto/camview/pkg/relay"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsCloseWait    = time.Second
)

// StreamMessage is the text frame sent to a stream viewer before the socket
// is closed.
type StreamMessage struct {
	Error string `json:"error"`
}

// wsViewer adapts a WebSocket connection to relay.Viewer. Writes are
// serialized; reads belong to the handler goroutine.
type wsViewer struct {
	id     string
	conn   *websocket.Conn
	mu     sync.Mutex
	once   sync.Once
	closed chan struct{}
}

var _ relay.Viewer = (*wsViewer)(nil)

func newWSViewer(conn *websocket.Conn) *wsViewer {
	return &wsViewer{
		id:     uuid.New().String(),
		conn:   conn,
		closed: make(chan struct{}),
	}
}

func (v *wsViewer) SendChunk(chunk []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	_ = v.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

	return v.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

func (v *wsViewer) SendError(message string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	_ = v.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

	return v.conn.WriteJSON(StreamMessage{Error: message})
}

func (v *wsViewer) Close() error {
	var err error

	v.once.Do(func() {
		v.mu.Lock()
		_ = v.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsCloseWait))
		err = v.conn.Close()
		v.mu.Unlock()

		close(v.closed)
	})

	return err
}

func (s *APIServer) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 32 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			if cvhttp.OriginAllowed(s.corsConfig, r.Header.Get("Origin")) {
				return true
			}

			s.logger.Warn().
				Str("origin", r.Header.Get("Origin")).
				Msg("WebSocket origin not allowed")

			return false
		},
	}
}

// handleStream attaches a WebSocket viewer to the relay. Binary frames carry
// MJPEG bytes; a JSON text frame with an error precedes any server-side close.
func (s *APIServer) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.relay == nil {
		s.unavailable(w, r, "stream relay")
		return
	}

	id, err := cameraID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	upgrader := s.upgrader()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	viewer := newWSViewer(conn)
	ctx := context.WithoutCancel(r.Context())

	s.logger.Info().
		Int64("camera_id", id).
		Str("viewer_id", viewer.id).
		Str("remote_addr", r.RemoteAddr).
		Msg("stream viewer connected")

	if err := s.relay.Attach(ctx, id, viewer); err != nil {
		s.logger.Warn().Err(err).Int64("camera_id", id).Str("viewer_id", viewer.id).Msg("stream attach failed")
		return
	}

	// Client frames are ignored; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.relay.Detach(ctx, id, viewer)

	s.logger.Info().
		Int64("camera_id", id).
		Str("viewer_id", viewer.id).
		Msg("stream viewer disconnected")
}
