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

// Package store defines the authoritative record store. Rows are append-only:
// a domain may have many rows and reads return the latest one.
package store

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound means the domain has no row.
	ErrNotFound = errors.New("no record for domain")

	// ErrMalformedRow means the latest row of the domain has no record.
	ErrMalformedRow = errors.New("row has no record")
)

type Store interface {
	// Insert appends a row. It never checks for existing rows of domain.
	Insert(ctx context.Context, id, domain, record string) error

	// LookupLatest returns the record of the most recently inserted row of
	// domain. Rows inserted at the same instant are ordered by id.
	LookupLatest(ctx context.Context, domain string) (string, error)

	io.Closer
}
