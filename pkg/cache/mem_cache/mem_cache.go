/*
 * Copyright (C) 2020-2026, IrineSistiana
 *
 * This file is part of nscache.
 *
 * nscache is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * nscache is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package mem_cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/fromafrica/nscache/pkg/cache"
)

// MemCache is an in-process cache.Backend. It is safe for concurrent use.
type MemCache struct {
	closed uint32
	c      *ttlcache.Cache[string, string]
}

var _ cache.Backend = (*MemCache)(nil)

// NewMemCache returns a MemCache holding at most size entries. The least
// recently used entry is evicted when full. A size <= 0 means unbounded.
// A ttl <= 0 means entries never expire.
func NewMemCache(size int, ttl time.Duration) *MemCache {
	opts := []ttlcache.Option[string, string]{
		ttlcache.WithDisableTouchOnHit[string, string](),
	}
	if size > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, string](uint64(size)))
	}
	if ttl > 0 {
		opts = append(opts, ttlcache.WithTTL[string, string](ttl))
	}

	c := &MemCache{
		c: ttlcache.New[string, string](opts...),
	}
	go c.c.Start()
	return c
}

func (c *MemCache) isClosed() bool {
	return atomic.LoadUint32(&c.closed) != 0
}

func (c *MemCache) Close() error {
	if atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		c.c.Stop()
	}
	return nil
}

func (c *MemCache) Get(_ context.Context, domain string) (string, bool, error) {
	if c.isClosed() {
		return "", false, cache.ErrClosed
	}
	item := c.c.Get(domain)
	if item == nil {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (c *MemCache) Put(_ context.Context, domain, record string) error {
	if c.isClosed() {
		return cache.ErrClosed
	}
	c.c.Set(domain, record, ttlcache.DefaultTTL)
	return nil
}

func (c *MemCache) Len() int {
	return c.c.Len()
}
