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

package pg_store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fromafrica/nscache/pkg/store"
)

const (
	insertRecord = `INSERT INTO dns_records (id, domain, record) VALUES ($1, $2, $3)`

	lookupLatestRecord = `SELECT record FROM dns_records
WHERE domain = $1
ORDER BY created_at DESC, id DESC
LIMIT 1`
)

// DBTX is the subset of *pgxpool.Pool used by PgStore.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgStoreOpts struct {
	// DB cannot be nil. Usually a *pgxpool.Pool.
	DB DBTX

	// Pool, if set, is closed by PgStore.Close.
	Pool *pgxpool.Pool
}

// PgStore is a store.Store backed by PostgreSQL.
type PgStore struct {
	opts PgStoreOpts
}

var _ store.Store = (*PgStore)(nil)

func NewPgStore(opts PgStoreOpts) (*PgStore, error) {
	if opts.DB == nil {
		return nil, errors.New("nil db")
	}
	return &PgStore{opts: opts}, nil
}

// NewConnectionPool creates a pgx v5 pool from a PostgreSQL connection
// string. maxConns <= 0 keeps the pgxpool default.
func NewConnectionPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

func (s *PgStore) Insert(ctx context.Context, id, domain, record string) error {
	if _, err := s.opts.DB.Exec(ctx, insertRecord, id, domain, record); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PgStore) LookupLatest(ctx context.Context, domain string) (string, error) {
	var record *string
	err := s.opts.DB.QueryRow(ctx, lookupLatestRecord, domain).Scan(&record)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("lookup record: %w", err)
	}
	if record == nil {
		return "", store.ErrMalformedRow
	}
	return *record, nil
}

func (s *PgStore) Close() error {
	if s.opts.Pool != nil {
		s.opts.Pool.Close()
	}
	return nil
}
