// Copyright (C) 2021  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package dns

import (
	"sync"
	"time"
)

// targetCache holds resolved peer targets for a short period of time to avoid
// a dns round trip per connection. Entries may be served slightly stale, which
// is tolerable for discovery.
type targetCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   func() time.Time
	entries map[string]targetCacheEntry
}

type targetCacheEntry struct {
	targets   []Target
	expiresAt time.Time
}

func newTargetCache(ttl time.Duration) *targetCache {
	return &targetCache{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]targetCacheEntry),
	}
}

func (c *targetCache) get(key string) ([]Target, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.clock().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	return entry.targets, true
}

func (c *targetCache) put(key string, targets []Target) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = targetCacheEntry{
		targets:   targets,
		expiresAt: c.clock().Add(c.ttl),
	}
}
