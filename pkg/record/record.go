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

// Package record holds the record payload format shared by the cache and the
// authoritative store. A record is a JSON object with at least a string "type".
package record

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrSyntax      = errors.New("record is not valid json")
	ErrNotObject   = errors.New("record is not a json object")
	ErrMissingType = errors.New("record has no type")
)

// Record is the decoded form of a record blob.
// Fields other than Type are optional and only used by the dns surface.
type Record struct {
	Type  string `json:"type"`
	Value Values `json:"value,omitempty"`
	TTL   uint32 `json:"ttl,omitempty"`
}

// Values accepts both a single json string and a list of strings.
type Values []string

func (v *Values) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*v = Values{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("value must be a string or a list of strings: %w", err)
	}
	*v = many
	return nil
}

// TypeOf returns the "type" of blob without looking at any other field.
// It only fails if blob is not valid json. A blob that is not an object,
// or has no string type, has the empty type.
func TypeOf(blob string) (string, error) {
	b := []byte(blob)
	if !json.Valid(b) {
		return "", ErrSyntax
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return "", nil
	}
	var t string
	if err := json.Unmarshal(obj["type"], &t); err != nil {
		return "", nil
	}
	return t, nil
}

// Parse decodes blob, including the optional dns fields, which must be
// well formed. Unknown fields are ignored.
func Parse(blob string) (*Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotObject, err)
	}
	if raw == nil {
		return nil, ErrNotObject
	}

	t, ok := raw["type"]
	if !ok {
		return nil, ErrMissingType
	}
	r := new(Record)
	if err := json.Unmarshal(t, &r.Type); err != nil {
		return nil, fmt.Errorf("invalid type field: %w", err)
	}
	if len(r.Type) == 0 {
		return nil, ErrMissingType
	}
	if v, ok := raw["value"]; ok {
		if err := json.Unmarshal(v, &r.Value); err != nil {
			return nil, err
		}
	}
	if v, ok := raw["ttl"]; ok {
		if err := json.Unmarshal(v, &r.TTL); err != nil {
			return nil, fmt.Errorf("invalid ttl field: %w", err)
		}
	}
	return r, nil
}
