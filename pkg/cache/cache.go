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

package cache

import (
	"context"
	"errors"
	"io"
)

// ErrUnavailable is returned by a Backend that is known to be down.
var ErrUnavailable = errors.New("cache backend unavailable")

// ErrCorrupt is returned by Get when a stored value cannot be decoded.
var ErrCorrupt = errors.New("cached value is corrupt")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("cache closed")

// Backend maps a domain name to a serialized record.
// Domain names are opaque: no case folding, no trailing dot handling.
type Backend interface {
	// Get returns the record stored for domain.
	// Returns:
	//   record: stored value, byte-for-byte as it was Put
	//   ok: false if nothing is stored. This is not an error.
	//   err: I/O failure only
	Get(ctx context.Context, domain string) (record string, ok bool, err error)

	// Put overwrites the record of domain. Last writer wins.
	Put(ctx context.Context, domain, record string) error

	// Len returns the number of stored entries, or -1 if unknown.
	Len() int

	io.Closer
}
