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

package mem_store

import (
	"context"
	"errors"
	"sync"

	"github.com/fromafrica/nscache/pkg/store"
)

var errClosed = errors.New("store closed")

type row struct {
	id     string
	record *string
}

// MemStore is an in-process store.Store. Rows of a domain are kept in
// insertion order, so the latest row is simply the last one.
type MemStore struct {
	m      sync.RWMutex
	closed bool
	rows   map[string][]row
}

var _ store.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string][]row)}
}

func (s *MemStore) Insert(ctx context.Context, id, domain, record string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.m.Lock()
	defer s.m.Unlock()
	if s.closed {
		return errClosed
	}
	s.rows[domain] = append(s.rows[domain], row{id: id, record: &record})
	return nil
}

// InsertNull appends a row without a record. It exists to reproduce rows
// written by other tools that left the column empty.
func (s *MemStore) InsertNull(id, domain string) {
	s.m.Lock()
	defer s.m.Unlock()
	s.rows[domain] = append(s.rows[domain], row{id: id})
}

func (s *MemStore) LookupLatest(ctx context.Context, domain string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.m.RLock()
	defer s.m.RUnlock()
	if s.closed {
		return "", errClosed
	}
	rs := s.rows[domain]
	if len(rs) == 0 {
		return "", store.ErrNotFound
	}
	latest := rs[len(rs)-1]
	if latest.record == nil {
		return "", store.ErrMalformedRow
	}
	return *latest.record, nil
}

// Count returns the number of rows of domain.
func (s *MemStore) Count(domain string) int {
	s.m.RLock()
	defer s.m.RUnlock()
	return len(s.rows[domain])
}

func (s *MemStore) Close() error {
	s.m.Lock()
	defer s.m.Unlock()
	s.closed = true
	return nil
}
