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

package relay

import (
	"sync"
	"time"

	"github.com/carverauto/camview/pkg/models"
	"github.com/carverauto/camview/pkg/transcoder"
)

// ring is a fixed-capacity FIFO of chunks; pushing onto a full ring drops
// the oldest chunk.
type ring struct {
	buf   [][]byte
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([][]byte, capacity)}
}

func (r *ring) push(chunk []byte) {
	if len(r.buf) == 0 {
		return
	}

	idx := (r.start + r.size) % len(r.buf)
	r.buf[idx] = chunk

	if r.size < len(r.buf) {
		r.size++
		return
	}

	r.start = (r.start + 1) % len(r.buf)
}

// snapshot returns the buffered chunks oldest first.
func (r *ring) snapshot() [][]byte {
	out := make([][]byte, 0, r.size)

	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}

	return out
}

func (r *ring) len() int { return r.size }

// entry is the live relay for one camera.
type entry struct {
	cameraID  int64
	proc      transcoder.Process
	startedAt time.Time

	mu           sync.Mutex
	subs         map[Viewer]*subscriber
	replay       *ring
	lastActivity time.Time
	chunksOut    uint64
	bytesOut     uint64
	stopped      bool
}

func newEntry(cameraID int64, proc transcoder.Process, replayChunks int, now time.Time) *entry {
	return &entry{
		cameraID:     cameraID,
		proc:         proc,
		startedAt:    now,
		subs:         make(map[Viewer]*subscriber),
		replay:       newRing(replayChunks),
		lastActivity: now,
	}
}

// join attaches sub and queues the replay buffer ahead of any live chunk.
// It reports false when the entry has already stopped.
func (e *entry) join(sub *subscriber, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return false
	}

	for _, chunk := range e.replay.snapshot() {
		sub.offer(chunk)
	}

	e.subs[sub.viewer] = sub
	e.lastActivity = now

	return true
}

// leave detaches viewer and reports whether it was attached.
func (e *entry) leave(viewer Viewer, now time.Time) (*subscriber, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub, ok := e.subs[viewer]
	if !ok {
		return nil, false
	}

	delete(e.subs, viewer)

	if len(e.subs) == 0 {
		e.lastActivity = now
	}

	return sub, true
}

// broadcast buffers chunk and queues it for every attached viewer. Viewers
// whose queue is full are detached and returned.
func (e *entry) broadcast(chunk []byte, now time.Time) []*subscriber {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return nil
	}

	e.replay.push(chunk)
	e.chunksOut++
	e.bytesOut += uint64(len(chunk))

	var dropped []*subscriber

	for viewer, sub := range e.subs {
		if sub.offer(chunk) {
			continue
		}

		delete(e.subs, viewer)
		dropped = append(dropped, sub)
	}

	if len(dropped) > 0 && len(e.subs) == 0 {
		e.lastActivity = now
	}

	return dropped
}

// stop marks the entry stopped and shuts down every viewer with reason. Only
// the first call returns true along with the number of viewers it released.
func (e *entry) stop(reason string) (bool, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return false, 0
	}

	e.stopped = true
	released := len(e.subs)

	for viewer, sub := range e.subs {
		sub.shutdown(reason)
		delete(e.subs, viewer)
	}

	return true, released
}

func (e *entry) idle(now time.Time, threshold time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return !e.stopped && len(e.subs) == 0 && now.Sub(e.lastActivity) > threshold
}

func (e *entry) viewerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.subs)
}

func (e *entry) stats() models.StreamStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.StreamStats{
		CameraID:       e.cameraID,
		PID:            e.proc.PID(),
		Viewers:        len(e.subs),
		BufferedChunks: e.replay.len(),
		ChunksOut:      e.chunksOut,
		BytesOut:       e.bytesOut,
		StartedAt:      e.startedAt,
		LastActivity:   e.lastActivity,
	}
}
