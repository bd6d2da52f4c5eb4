/*
 * Copyright (C) 2020-2026, IrineSistiana
 *
 * This file is part of nscache.
 *
 * Portions derived from lakerunner internal/idgen, Copyright 2025 CardinalHQ, Inc.,
 * licensed under the Apache License, Version 2.0.
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

package idgen

import (
	crand "crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDLength is the length of every id produced by this package.
const IDLength = ulid.EncodedSize

// IDGenerator makes row identifiers.
type IDGenerator interface {
	Make(t time.Time) string
}

// ULIDGenerator makes 26 character, time ordered ids. Ids made by one
// generator are strictly increasing, even within the same millisecond.
// It is safe for concurrent use.
type ULIDGenerator struct {
	m       sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var _ IDGenerator = (*ULIDGenerator)(nil)

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(crand.Reader, 0),
	}
}

func (u *ULIDGenerator) Make(t time.Time) string {
	u.m.Lock()
	defer u.m.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), u.entropy).String()
}
