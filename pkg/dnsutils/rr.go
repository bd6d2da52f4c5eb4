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

package dnsutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/fromafrica/nscache/pkg/record"
)

var errNoValue = errors.New("record has no value")

// QuestionKey returns the cache domain and record type of q.
// The trailing dot is removed and the name is lower cased, since
// resolvers may randomize the case of query names.
func QuestionKey(q dns.Question) (domain, qType string) {
	domain = strings.ToLower(strings.TrimSuffix(q.Name, "."))
	qType = QtypeToString(q.Qtype)
	return domain, qType
}

// QtypeToString returns the mnemonic of t, or "TYPE<t>" for unknown types.
func QtypeToString(t uint16) string {
	if s, ok := dns.TypeToString[t]; ok {
		return s
	}
	return fmt.Sprintf("TYPE%d", t)
}

// BuildAnswer converts r into answer RRs owned by q.Name.
// Each value is parsed as the rdata of a zone file line, so any type
// miekg/dns knows can be served. ttl is used if r has none.
func BuildAnswer(q dns.Question, r *record.Record, ttl uint32) ([]dns.RR, error) {
	if len(r.Value) == 0 {
		return nil, errNoValue
	}
	if r.TTL > 0 {
		ttl = r.TTL
	}

	name := dns.Fqdn(q.Name)
	rrs := make([]dns.RR, 0, len(r.Value))
	for _, v := range r.Value {
		rr, err := dns.NewRR(fmt.Sprintf("%s %d IN %s %s", name, ttl, r.Type, v))
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", r.Type, v, err)
		}
		if rr == nil {
			return nil, errNoValue
		}
		rrs = append(rrs, rr)
	}
	return rrs, nil
}
