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

// Package relay multiplexes one streaming transcoder per camera across any
// number of attached viewers.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/carverauto/camview/pkg/events"
	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
	"github.com/carverauto/camview/pkg/transcoder"
)

const (
	publishTimeout = 5 * time.Second

	reasonStreamEnded = "stream ended"
	reasonIdle        = "idle timeout"
	reasonDetached    = "viewer disconnected"
	reasonReplaced    = "stream restarted for a new viewer"
	reasonShutdown    = "server shutting down"
	reasonSlowViewer  = "viewer too slow, dropping connection"
)

var errRelayClosed = errors.New("relay is closed")

// FeedResolver returns the transcoder input address for a camera.
type FeedResolver interface {
	ResolveFeed(ctx context.Context, cameraID int64) (string, error)
}

// KeepOpenPolicy reports whether entries outlive their last viewer.
type KeepOpenPolicy interface {
	KeepStreamsOpen(ctx context.Context) bool
}

// Option customizes a Relay.
type Option func(*Relay)

// WithClock replaces time.Now, mostly for idle sweep tests.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// WithPublisher sets the lifecycle event publisher.
func WithPublisher(pub events.Publisher) Option {
	return func(r *Relay) { r.events = pub }
}

// WithSampler sets the process sampler used by Stats.
func WithSampler(s ProcessSampler) Option {
	return func(r *Relay) { r.sampler = s }
}

// Relay owns every live entry. The zero value is not usable; call New.
type Relay struct {
	cfg      models.RelayConfig
	tcfg     models.TranscoderConfig
	feeds    FeedResolver
	policy   KeepOpenPolicy
	launcher transcoder.Launcher
	events   events.Publisher
	sampler  ProcessSampler
	log      logger.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[int64]*entry
	locks   map[int64]*cameraLock
	closed  bool
	wg      sync.WaitGroup
}

// New creates a Relay. cfg and tcfg are copied.
func New(
	cfg *models.RelayConfig,
	tcfg *models.TranscoderConfig,
	feeds FeedResolver,
	policy KeepOpenPolicy,
	launcher transcoder.Launcher,
	log logger.Logger,
	opts ...Option,
) *Relay {
	ctx, cancel := context.WithCancel(context.Background())

	r := &Relay{
		cfg:      *cfg,
		tcfg:     *tcfg,
		feeds:    feeds,
		policy:   policy,
		launcher: launcher,
		events:   events.NopPublisher{},
		sampler:  gopsutilSampler{},
		log:      log,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[int64]*entry),
		locks:    make(map[int64]*cameraLock),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// cameraLock serializes operations on one camera. It is dropped from the
// table once no goroutine holds or waits for it.
type cameraLock struct {
	mu   sync.Mutex
	refs int
}

// lockCamera acquires the lock of cameraID and returns its release function.
func (r *Relay) lockCamera(cameraID int64) func() {
	r.mu.Lock()
	lock, ok := r.locks[cameraID]
	if !ok {
		lock = &cameraLock{}
		r.locks[cameraID] = lock
	}
	lock.refs++
	r.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		r.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(r.locks, cameraID)
		}
		r.mu.Unlock()
	}
}

// lockedCameras reports how many per-camera locks are live.
func (r *Relay) lockedCameras() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.locks)
}

func (r *Relay) lookup(cameraID int64) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.entries[cameraID]
}

func (r *Relay) queueSize() int {
	size := r.cfg.ViewerQueue
	if minSize := r.cfg.ReplayChunks * 2; size < minSize {
		size = minSize
	}

	return size
}

// Attach connects viewer to the stream of cameraID, starting a transcoder
// when none is running. On failure the viewer receives the error as a
// diagnostic and is closed.
func (r *Relay) Attach(ctx context.Context, cameraID int64, viewer Viewer) error {
	unlock := r.lockCamera(cameraID)
	defer unlock()

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()

	if closed {
		reject(viewer, errRelayClosed)
		return errRelayClosed
	}

	keepOpen := r.policy.KeepStreamsOpen(ctx)
	sub := newSubscriber(viewer, r.queueSize())

	if existing := r.lookup(cameraID); existing != nil {
		if keepOpen && existing.join(sub, r.now()) {
			recordViewerDelta(ctx, cameraID, 1)

			r.log.Debug().
				Int64("camera_id", cameraID).
				Int("viewers", existing.viewerCount()).
				Msg("viewer joined running stream")

			return nil
		}

		if !keepOpen {
			r.terminate(existing, reasonReplaced)
		}
	}

	feed, err := r.feeds.ResolveFeed(ctx, cameraID)
	if err != nil {
		sub.shutdown(err.Error())
		return err
	}

	proc, err := r.launcher.Launch(r.ctx, transcoder.StreamArgs(&r.tcfg, feed))
	if err != nil {
		r.log.Error().Err(err).Int64("camera_id", cameraID).Msg("failed to start stream transcoder")
		sub.shutdown(err.Error())

		return err
	}

	recordSpawn(ctx, cameraID)

	e := newEntry(cameraID, proc, r.cfg.ReplayChunks, r.now())
	e.join(sub, r.now())

	r.mu.Lock()
	r.entries[cameraID] = e
	r.mu.Unlock()

	recordEntryDelta(ctx, cameraID, 1)
	recordViewerDelta(ctx, cameraID, 1)

	r.wg.Add(1)

	go r.pump(e)

	r.log.Info().
		Int64("camera_id", cameraID).
		Int("pid", proc.PID()).
		Bool("keep_open", keepOpen).
		Msg("stream started")

	r.publish(&models.StreamEventData{
		CameraID: cameraID,
		Action:   models.StreamStarted,
		PID:      proc.PID(),
		Viewers:  1,
	})

	return nil
}

// Detach removes viewer. Unless keep-open mode is on, the entry is torn down
// and its transcoder killed before Detach returns.
func (r *Relay) Detach(ctx context.Context, cameraID int64, viewer Viewer) {
	unlock := r.lockCamera(cameraID)
	defer unlock()

	e := r.lookup(cameraID)
	if e == nil {
		return
	}

	sub, ok := e.leave(viewer, r.now())
	if !ok {
		return
	}

	sub.shutdown("")
	recordViewerDelta(ctx, cameraID, -1)

	if r.policy.KeepStreamsOpen(ctx) {
		r.log.Debug().
			Int64("camera_id", cameraID).
			Int("viewers", e.viewerCount()).
			Msg("viewer left, keeping stream open")

		return
	}

	r.terminate(e, reasonDetached)
}

// pump reads transcoder output until it ends, then tears the entry down.
func (r *Relay) pump(e *entry) {
	defer r.wg.Done()

	buf := make([]byte, r.cfg.ReadSize)
	stdout := e.proc.Stdout()

	var readErr error

	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			recordChunk(r.ctx, e.cameraID, n)

			dropped := e.broadcast(chunk, r.now())
			for _, sub := range dropped {
				recordViewerDelta(r.ctx, e.cameraID, -1)
				recordDroppedViewer(r.ctx, e.cameraID)

				r.log.Warn().Int64("camera_id", e.cameraID).Msg("dropping slow viewer")
				sub.shutdown(reasonSlowViewer)
			}

			if len(dropped) > 0 {
				r.releaseAbandoned(e)
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}

			break
		}
	}

	waitErr := e.proc.Wait()

	reason := reasonStreamEnded

	switch {
	case waitErr != nil:
		reason = fmt.Sprintf("transcoder error: %v", waitErr)
	case readErr != nil:
		reason = fmt.Sprintf("transcoder output error: %v", readErr)
	}

	r.finish(e, reason)
}

// releaseAbandoned terminates e when dropping slow viewers left it without
// viewers and keep-open mode is off.
func (r *Relay) releaseAbandoned(e *entry) {
	unlock := r.lockCamera(e.cameraID)
	defer unlock()

	if r.lookup(e.cameraID) != e || e.viewerCount() > 0 || r.policy.KeepStreamsOpen(r.ctx) {
		return
	}

	r.terminate(e, reasonSlowViewer)
}

// terminate kills the transcoder of e and removes it. The pump observes the
// closed output and finds the entry already stopped.
func (r *Relay) terminate(e *entry, reason string) {
	if err := e.proc.Kill(); err != nil {
		r.log.Warn().Err(err).Int64("camera_id", e.cameraID).Msg("failed to kill transcoder")
	}

	r.finish(e, reason)
}

func (r *Relay) finish(e *entry, reason string) {
	first, released := e.stop(reason)
	if !first {
		return
	}

	r.mu.Lock()
	if current, ok := r.entries[e.cameraID]; ok && current == e {
		delete(r.entries, e.cameraID)
	}
	r.mu.Unlock()

	recordEntryDelta(r.ctx, e.cameraID, -1)
	recordViewerDelta(r.ctx, e.cameraID, -int64(released))

	r.log.Info().
		Int64("camera_id", e.cameraID).
		Int("pid", e.proc.PID()).
		Int("viewers_released", released).
		Str("reason", reason).
		Msg("stream stopped")

	r.publish(&models.StreamEventData{
		CameraID: e.cameraID,
		Action:   models.StreamStopped,
		PID:      e.proc.PID(),
		Viewers:  released,
		Reason:   reason,
	})
}

func (r *Relay) publish(data *models.StreamEventData) {
	data.Timestamp = r.now().UTC()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := r.events.PublishStreamEvent(ctx, data); err != nil {
			r.log.Warn().Err(err).Int64("camera_id", data.CameraID).Msg("failed to publish stream event")
		}
	}()
}

// SweepIdle terminates every entry that has had no viewers for longer than
// the idle timeout and returns how many it removed.
func (r *Relay) SweepIdle() int {
	threshold := time.Duration(r.cfg.IdleTimeout)

	r.mu.Lock()
	candidates := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		candidates = append(candidates, e)
	}
	r.mu.Unlock()

	removed := 0

	for _, e := range candidates {
		unlock := r.lockCamera(e.cameraID)

		if e.idle(r.now(), threshold) {
			r.terminate(e, reasonIdle)
			removed++
		}

		unlock()
	}

	if removed > 0 {
		r.log.Info().Int("removed", removed).Msg("swept idle streams")
	}

	return removed
}

// Run sweeps idle entries every sweep interval until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(r.cfg.SweepInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.SweepIdle()
		}
	}
}

// Stats lists every live entry ordered by camera id.
func (r *Relay) Stats(ctx context.Context) []models.StreamStats {
	r.mu.Lock()
	live := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		live = append(live, e)
	}
	r.mu.Unlock()

	out := make([]models.StreamStats, 0, len(live))

	for _, e := range live {
		stats := e.stats()

		if usage, err := r.sampler.Sample(ctx, stats.PID); err == nil {
			stats.CPUPercent = usage.CPUPercent
			stats.RSSBytes = usage.RSSBytes
		}

		out = append(out, stats)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CameraID < out[j].CameraID })

	return out
}

// Active reports whether cameraID has a live entry.
func (r *Relay) Active(cameraID int64) bool {
	return r.lookup(cameraID) != nil
}

// Stop terminates the entry of cameraID, if any. The registry calls it when
// a camera is changed or removed.
func (r *Relay) Stop(cameraID int64, reason string) {
	unlock := r.lockCamera(cameraID)
	defer unlock()

	if e := r.lookup(cameraID); e != nil {
		r.terminate(e, reason)
	}
}

// Close terminates every entry and waits for their readers to exit.
func (r *Relay) Close() error {
	r.mu.Lock()
	r.closed = true
	live := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		live = append(live, e)
	}
	r.mu.Unlock()

	for _, e := range live {
		r.terminate(e, reasonShutdown)
	}

	r.cancel()
	r.wg.Wait()

	return nil
}

func reject(viewer Viewer, err error) {
	_ = viewer.SendError(err.Error())
	_ = viewer.Close()
}
