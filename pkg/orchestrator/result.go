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

package orchestrator

import (
	"errors"
)

var (
	ErrMissingDomain = errors.New("missing domain")
	ErrMissingType   = errors.New("missing type")
	ErrMissingRecord = errors.New("missing record")
	ErrInvalidRecord = errors.New("record failed validation")
)

// Kind tags a Result.
type Kind uint8

const (
	KindFound Kind = iota
	KindNotFound
	KindUpdated

	// KindBadRequest means a required input was missing or rejected.
	KindBadRequest
	// KindSystemError means a cache I/O failure, or a failed authoritative
	// insert on create.
	KindSystemError
	// KindDBSystemError means the authoritative lookup failed on reconcile.
	KindDBSystemError
	// KindDBMalformedData means the authoritative store had no usable row.
	KindDBMalformedData
	// KindDBInvalidData means the stored record failed validation.
	KindDBInvalidData
	// KindPartialReconciliation means the authoritative insert committed
	// but the cache was not warmed. Nothing was rolled back.
	KindPartialReconciliation
	// KindCacheCorrupt means a cached value could not be parsed.
	KindCacheCorrupt
)

var kindNames = [...]string{
	KindFound:                 "found",
	KindNotFound:              "not_found",
	KindUpdated:               "updated",
	KindBadRequest:            "bad_request",
	KindSystemError:           "system_error",
	KindDBSystemError:         "db_system_error",
	KindDBMalformedData:       "db_malformed_data",
	KindDBInvalidData:         "db_invalid_data",
	KindPartialReconciliation: "partial_reconciliation",
	KindCacheCorrupt:          "cache_corrupt",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// OK reports whether k is a normal outcome.
func (k Kind) OK() bool {
	return k == KindFound || k == KindNotFound || k == KindUpdated
}

// Result is the outcome of one request.
type Result struct {
	Kind Kind

	Domain string

	// Record is the record blob, exactly as stored. Set for KindFound and
	// KindUpdated, and for KindPartialReconciliation.
	Record string

	// ID of the authoritative row written by Create, if any.
	ID string

	// NameExists is set on a KindNotFound from Query when the domain is
	// cached with a record of another type.
	NameExists bool

	// Err is the cause of a failure kind. Nil otherwise.
	Err error
}

func failed(k Kind, domain string, err error) Result {
	return Result{Kind: k, Domain: domain, Err: err}
}
