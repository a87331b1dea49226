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

import "sync"

// Viewer is one consumer of a relayed stream, typically a WebSocket.
// Implementations must be comparable; pointer receivers are.
type Viewer interface {
	SendChunk(chunk []byte) error
	SendError(message string) error
	Close() error
}

// subscriber drains a bounded queue into its viewer on its own goroutine.
type subscriber struct {
	viewer Viewer
	queue  chan []byte
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	reason string
}

func newSubscriber(viewer Viewer, queueSize int) *subscriber {
	sub := &subscriber{
		viewer: viewer,
		queue:  make(chan []byte, queueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go sub.run()

	return sub
}

func (s *subscriber) offer(chunk []byte) bool {
	select {
	case s.queue <- chunk:
		return true
	default:
		return false
	}
}

// shutdown stops the writer. A non-empty reason is sent as a diagnostic after
// the already queued chunks.
func (s *subscriber) shutdown(reason string) {
	s.once.Do(func() {
		s.reason = reason
		close(s.quit)
	})
}

func (s *subscriber) run() {
	defer close(s.done)
	defer func() { _ = s.viewer.Close() }()

	for {
		select {
		case chunk := <-s.queue:
			if err := s.viewer.SendChunk(chunk); err != nil {
				<-s.quit
				return
			}
		case <-s.quit:
			s.flush()

			if s.reason != "" {
				_ = s.viewer.SendError(s.reason)
			}

			return
		}
	}
}

func (s *subscriber) flush() {
	for {
		select {
		case chunk := <-s.queue:
			if err := s.viewer.SendChunk(chunk); err != nil {
				return
			}
		default:
			return
		}
	}
}
