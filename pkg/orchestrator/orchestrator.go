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

// Package orchestrator implements the cache-aside protocols between the
// cache and the authoritative store. Each call is a single-shot sequence of
// store operations. Nothing is retried and nothing is shared between calls
// except the injected backends.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fromafrica/nscache/pkg/cache"
	"github.com/fromafrica/nscache/pkg/idgen"
	"github.com/fromafrica/nscache/pkg/record"
	"github.com/fromafrica/nscache/pkg/store"
	"github.com/fromafrica/nscache/pkg/utils"
)

const defaultStoreTimeout = time.Second * 2

var nopLogger = zap.NewNop()

type Opts struct {
	// Cache cannot be nil.
	Cache cache.Backend

	// Store is the authoritative store. Optional. Without it Create only
	// writes the cache and UpdateCache never reconciles.
	Store store.Store

	// ReconcileOnUpdate makes UpdateCache read the record from Store
	// instead of taking the caller's record. Ignored if Store is nil.
	ReconcileOnUpdate bool

	// ValidateCacheUpdate validates caller records on a non-reconciling
	// UpdateCache.
	ValidateCacheUpdate bool

	// Validator checks records. Default is record.JSONValidator.
	Validator record.Validator

	// IDGen makes authoritative row ids. Default is a ULID generator.
	IDGen idgen.IDGenerator

	// StoreTimeout bounds every single cache or store call.
	// Default is 2s.
	StoreTimeout time.Duration

	// Logger is the *zap.Logger for this Orchestrator.
	// A nil Logger will disable logging.
	Logger *zap.Logger
}

func (opts *Opts) Init() error {
	if opts.Cache == nil {
		return errors.New("nil cache")
	}
	if opts.Validator == nil {
		opts.Validator = record.JSONValidator{}
	}
	if opts.IDGen == nil {
		opts.IDGen = idgen.NewULIDGenerator()
	}
	utils.SetDefaultNum(&opts.StoreTimeout, defaultStoreTimeout)
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

type Orchestrator struct {
	opts Opts
}

func NewOrchestrator(opts Opts) (*Orchestrator, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}
	return &Orchestrator{opts: opts}, nil
}

// Reconciling reports whether UpdateCache reads from the authoritative store.
func (o *Orchestrator) Reconciling() bool {
	return o.opts.Store != nil && o.opts.ReconcileOnUpdate
}

// Query serves a read from the cache only. A cached record whose type is
// not qType is reported as KindNotFound with NameExists set. Only the
// type of a cached record is inspected.
func (o *Orchestrator) Query(ctx context.Context, domain, qType string) Result {
	if len(domain) == 0 {
		return failed(KindBadRequest, domain, ErrMissingDomain)
	}
	if len(qType) == 0 {
		return failed(KindBadRequest, domain, ErrMissingType)
	}

	v, ok, err := o.cacheGet(ctx, domain)
	if err != nil {
		if errors.Is(err, cache.ErrCorrupt) {
			o.opts.Logger.Error("cached record is corrupt", zap.String("domain", domain), zap.Error(err))
			return failed(KindCacheCorrupt, domain, err)
		}
		return failed(KindSystemError, domain, err)
	}
	if !ok {
		return Result{Kind: KindNotFound, Domain: domain}
	}

	t, err := record.TypeOf(v)
	if err != nil {
		o.opts.Logger.Error("cached record is corrupt", zap.String("domain", domain), zap.Error(err))
		return failed(KindCacheCorrupt, domain, fmt.Errorf("cached record of %s: %w", domain, err))
	}
	if t != qType {
		return Result{Kind: KindNotFound, Domain: domain, NameExists: true}
	}
	return Result{Kind: KindFound, Domain: domain, Record: v}
}

// UpdateCache populates the cache. If the orchestrator is reconciling,
// rec is ignored and the latest authoritative record is cached instead.
func (o *Orchestrator) UpdateCache(ctx context.Context, domain, rec string) Result {
	if len(domain) == 0 {
		return failed(KindBadRequest, domain, ErrMissingDomain)
	}
	if o.Reconciling() {
		return o.reconcile(ctx, domain)
	}

	if len(rec) == 0 {
		return failed(KindBadRequest, domain, ErrMissingRecord)
	}
	if o.opts.ValidateCacheUpdate && !o.opts.Validator.Validate(rec) {
		return failed(KindBadRequest, domain, ErrInvalidRecord)
	}
	if err := o.cachePut(ctx, domain, rec); err != nil {
		return failed(KindSystemError, domain, err)
	}
	return Result{Kind: KindUpdated, Domain: domain, Record: rec}
}

func (o *Orchestrator) reconcile(ctx context.Context, domain string) Result {
	v, err := o.storeLookup(ctx, domain)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrMalformedRow):
			return failed(KindDBMalformedData, domain, err)
		default:
			return failed(KindDBSystemError, domain, err)
		}
	}
	if !o.opts.Validator.Validate(v) {
		return failed(KindDBInvalidData, domain, ErrInvalidRecord)
	}
	if err := o.cachePut(ctx, domain, v); err != nil {
		return failed(KindSystemError, domain, err)
	}
	return Result{Kind: KindUpdated, Domain: domain, Record: v}
}

// Create writes rec to the authoritative store, then warms the cache with
// it. The record is trusted as is.
func (o *Orchestrator) Create(ctx context.Context, domain, rec string) Result {
	if len(domain) == 0 {
		return failed(KindBadRequest, domain, ErrMissingDomain)
	}
	if len(rec) == 0 {
		return failed(KindBadRequest, domain, ErrMissingRecord)
	}

	if o.opts.Store == nil {
		if err := o.cachePut(ctx, domain, rec); err != nil {
			return failed(KindSystemError, domain, err)
		}
		return Result{Kind: KindUpdated, Domain: domain, Record: rec}
	}

	id := o.opts.IDGen.Make(time.Now())
	if err := o.storeInsert(ctx, id, domain, rec); err != nil {
		return failed(KindSystemError, domain, err)
	}

	if err := o.cachePut(ctx, domain, rec); err != nil {
		o.opts.Logger.Error(
			"record committed but cache warm failed",
			zap.String("domain", domain),
			zap.String("id", id),
			zap.Error(err),
		)
		return Result{
			Kind:   KindPartialReconciliation,
			Domain: domain,
			Record: rec,
			ID:     id,
			Err:    fmt.Errorf("cache warm after insert %s: %w", id, err),
		}
	}
	return Result{Kind: KindUpdated, Domain: domain, Record: rec, ID: id}
}

func (o *Orchestrator) cacheGet(ctx context.Context, domain string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()
	return o.opts.Cache.Get(ctx, domain)
}

func (o *Orchestrator) cachePut(ctx context.Context, domain, rec string) error {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()
	return o.opts.Cache.Put(ctx, domain, rec)
}

func (o *Orchestrator) storeInsert(ctx context.Context, id, domain, rec string) error {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()
	return o.opts.Store.Insert(ctx, id, domain, rec)
}

func (o *Orchestrator) storeLookup(ctx context.Context, domain string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()
	return o.opts.Store.LookupLatest(ctx, domain)
}
