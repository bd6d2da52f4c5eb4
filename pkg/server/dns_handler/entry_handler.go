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

package dns_handler

import (
	"context"
	"errors"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/fromafrica/nscache/pkg/dnsutils"
	"github.com/fromafrica/nscache/pkg/orchestrator"
	"github.com/fromafrica/nscache/pkg/record"
	"github.com/fromafrica/nscache/pkg/utils"
)

const (
	defaultQueryTimeout = time.Second * 5
	defaultTTL          = 300
)

var nopLogger = zap.NewNop()

// Handler handles dns queries.
type Handler interface {
	// ServeDNS handles req. The returned msg is the response. A nil msg
	// with a nil error means no response should be sent.
	ServeDNS(ctx context.Context, req *dns.Msg) (*dns.Msg, error)
}

// Querier is implemented by *orchestrator.Orchestrator.
type Querier interface {
	Query(ctx context.Context, domain, qType string) orchestrator.Result
}

type EntryHandlerOpts struct {
	// Logger is the *zap.Logger for this entry handler.
	// A nil Logger will disable the logging.
	Logger *zap.Logger

	// Querier cannot be nil.
	Querier Querier

	// TTL is used for records that carry none. Default is 300.
	TTL uint32

	// QueryTimeout limits the timeout value of each query.
	// Default is defaultQueryTimeout.
	QueryTimeout time.Duration
}

func (opts *EntryHandlerOpts) Init() error {
	if opts.Querier == nil {
		return errors.New("nil querier")
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	utils.SetDefaultNum(&opts.TTL, defaultTTL)
	utils.SetDefaultNum(&opts.QueryTimeout, defaultQueryTimeout)
	return nil
}

// EntryHandler answers queries from the record cache.
type EntryHandler struct {
	opts EntryHandlerOpts
}

func NewEntryHandler(opts EntryHandlerOpts) (*EntryHandler, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}
	return &EntryHandler{opts: opts}, nil
}

// ServeDNS implements Handler. It always returns a response. Failures are
// reported through the rcode.
func (h *EntryHandler) ServeDNS(ctx context.Context, req *dns.Msg) (*dns.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.QueryTimeout)
	defer cancel()

	resp := new(dns.Msg)
	resp.SetReply(req)
	resp.Authoritative = true
	if opt := req.IsEdns0(); opt != nil {
		resp.SetEdns0(opt.UDPSize(), false)
	}

	if len(req.Question) != 1 {
		resp.Rcode = dns.RcodeFormatError
		return resp, nil
	}
	q := req.Question[0]
	domain, qType := dnsutils.QuestionKey(q)

	res := h.opts.Querier.Query(ctx, domain, qType)
	switch res.Kind {
	case orchestrator.KindFound:
		rrs, err := h.answer(q, res.Record)
		if err != nil {
			h.opts.Logger.Warn("failed to build answer", zap.String("domain", domain), zap.String("type", qType), zap.Error(err))
			resp.Rcode = dns.RcodeServerFailure
			return resp, nil
		}
		resp.Answer = rrs
	case orchestrator.KindNotFound:
		// NODATA if the name holds a record of another type.
		if !res.NameExists {
			resp.Rcode = dns.RcodeNameError
		}
	case orchestrator.KindBadRequest:
		resp.Rcode = dns.RcodeFormatError
	default:
		h.opts.Logger.Warn("query failed", zap.String("domain", domain), zap.Stringer("result", res.Kind), zap.Error(res.Err))
		resp.Rcode = dns.RcodeServerFailure
	}
	return resp, nil
}

func (h *EntryHandler) answer(q dns.Question, blob string) ([]dns.RR, error) {
	r, err := record.Parse(blob)
	if err != nil {
		return nil, err
	}
	return dnsutils.BuildAnswer(q, r, h.opts.TTL)
}
