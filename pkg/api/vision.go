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
	"fmt"
	"net/http"

	"github.com/carverauto/camview/pkg/models"
)

// chunkedWriter commits a 200 text/plain response on the first write and
// flushes after every write.
type chunkedWriter struct {
	w       http.ResponseWriter
	started bool
}

func (c *chunkedWriter) Write(p []byte) (int, error) {
	if !c.started {
		c.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		c.w.Header().Set("X-Content-Type-Options", "nosniff")
		c.w.WriteHeader(http.StatusOK)
		c.started = true
	}

	n, err := c.w.Write(p)
	if err != nil {
		return n, err
	}

	c.Flush()

	return n, nil
}

func (c *chunkedWriter) Flush() {
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *APIServer) handleVisionQuery(w http.ResponseWriter, r *http.Request) {
	if s.vision == nil {
		s.unavailable(w, r, "vision queries")
		return
	}

	var q models.VisionQuery
	if err := decodeBody(w, r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}

	out := &chunkedWriter{w: w}

	if _, err := s.vision.Query(r.Context(), &q, out); err != nil {
		if !out.started {
			s.writeError(w, r, err)
			return
		}

		s.logger.Error().Err(err).Int64("camera_id", q.CameraID).Msg("vision query failed mid-stream")
		_, _ = fmt.Fprintf(out, "\nerror: %v\n", err)
	}
}
