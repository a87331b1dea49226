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

package main

import "bytes"

var (
	jpegStart = []byte{0xFF, 0xD8}
	jpegEnd   = []byte{0xFF, 0xD9}
)

// frameAssembler splits an MJPEG byte stream into complete JPEG images. The
// stream is chunked arbitrarily, so markers may straddle chunk boundaries.
type frameAssembler struct {
	buf    []byte
	frames int
	last   []byte
}

// maxPending bounds the buffered bytes when no end marker arrives.
const maxPending = 8 << 20

// Write appends chunk and returns how many frames it completed.
func (a *frameAssembler) Write(chunk []byte) int {
	a.buf = append(a.buf, chunk...)

	completed := 0

	for {
		start := bytes.Index(a.buf, jpegStart)
		if start < 0 {
			// Keep a trailing 0xFF in case the marker is split.
			if n := len(a.buf); n > 0 && a.buf[n-1] == 0xFF {
				a.buf = a.buf[n-1:]
			} else {
				a.buf = a.buf[:0]
			}

			break
		}

		end := bytes.Index(a.buf[start+len(jpegStart):], jpegEnd)
		if end < 0 {
			a.buf = a.buf[start:]
			if len(a.buf) > maxPending {
				a.buf = a.buf[:0]
			}

			break
		}

		stop := start + len(jpegStart) + end + len(jpegEnd)
		a.last = append(a.last[:0], a.buf[start:stop]...)
		a.buf = a.buf[stop:]
		a.frames++
		completed++
	}

	return completed
}

// Last returns the most recently completed frame.
func (a *frameAssembler) Last() []byte { return a.last }
