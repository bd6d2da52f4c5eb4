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

package record

import "encoding/json"

// Validator decides whether a record blob can be trusted.
// Implementations must not panic; a rejection is a false return.
type Validator interface {
	Validate(blob string) bool
}

// JSONValidator accepts any well-formed json document. No schema is applied.
type JSONValidator struct{}

var _ Validator = JSONValidator{}

func (JSONValidator) Validate(blob string) bool {
	return json.Valid([]byte(blob))
}

// TypedValidator additionally requires a non-empty string "type".
// Other fields are not inspected.
type TypedValidator struct{}

var _ Validator = TypedValidator{}

func (TypedValidator) Validate(blob string) bool {
	t, err := TypeOf(blob)
	return err == nil && len(t) > 0
}

// ValidatorFunc adapts a plain function.
type ValidatorFunc func(blob string) bool

func (f ValidatorFunc) Validate(blob string) bool {
	return f(blob)
}
