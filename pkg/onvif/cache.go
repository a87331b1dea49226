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

package onvif

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/carverauto/camview/pkg/logger"
)

// Cache holds one initialized Session per cache key for the life of the
// process. Cached sessions are returned without a liveness check; callers
// Evict a key when its device changes or stops answering.
type Cache struct {
	dialer Dialer
	log    logger.Logger

	mu       sync.RWMutex
	sessions map[string]Session
	group    singleflight.Group
}

func NewCache(dialer Dialer, log logger.Logger) *Cache {
	return &Cache{
		dialer:   dialer,
		log:      log,
		sessions: make(map[string]Session),
	}
}

func (c *Cache) lookup(cacheKey string) (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sess, ok := c.sessions[cacheKey]

	return sess, ok
}

// GetDevice returns the cached session for cacheKey or dials address and
// caches the result. Concurrent misses for one key share a single dial. An
// empty cacheKey always dials and caches nothing.
func (c *Cache) GetDevice(ctx context.Context, address, username, password, cacheKey string) (Session, error) {
	if cacheKey == "" {
		return c.dialer.Dial(ctx, address, username, password)
	}

	if sess, ok := c.lookup(cacheKey); ok {
		c.log.Debug().Str("cache_key", cacheKey).Msg("using cached camera connection")
		return sess, nil
	}

	ch := c.group.DoChan(cacheKey, func() (interface{}, error) {
		if sess, ok := c.lookup(cacheKey); ok {
			return sess, nil
		}

		c.log.Info().Str("cache_key", cacheKey).Str("address", address).Msg("opening new camera connection")

		// the dial is shared, so one caller giving up must not fail the rest
		sess, err := c.dialer.Dial(context.WithoutCancel(ctx), address, username, password)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.sessions[cacheKey] = sess
		c.mu.Unlock()

		return sess, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(Session), nil
	}
}

// Evict drops the session cached under cacheKey.
func (c *Cache) Evict(cacheKey string) {
	c.mu.Lock()
	_, ok := c.sessions[cacheKey]
	delete(c.sessions, cacheKey)
	c.mu.Unlock()

	c.group.Forget(cacheKey)

	if ok {
		c.log.Debug().Str("cache_key", cacheKey).Msg("evicted camera connection")
	}
}

// Len reports the number of cached sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.sessions)
}
