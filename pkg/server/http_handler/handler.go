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

package http_handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fromafrica/nscache/pkg/orchestrator"
)

const (
	RouteQuery  = "/dns-query"
	RouteUpdate = "/cache-update"
	RouteCreate = "/cache-create"

	defaultMaxBodyBytes = 64 * 1024
)

var nopLogger = zap.NewNop()

// proxyHeaders is defined as a package-level variable to avoid allocation on every request.
var proxyHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// Orchestrator is implemented by *orchestrator.Orchestrator.
type Orchestrator interface {
	Query(ctx context.Context, domain, qType string) orchestrator.Result
	UpdateCache(ctx context.Context, domain, rec string) orchestrator.Result
	Create(ctx context.Context, domain, rec string) orchestrator.Result
}

// Gate is implemented by *auth.Gate.
type Gate interface {
	Allow(authorization string) bool
}

type HandlerOpts struct {
	Orchestrator Orchestrator
	Gate         Gate

	// HealthPath answers GET without auth. Default is "/health".
	HealthPath string

	// SrcIPHeader is an extra header that carries the client ip.
	SrcIPHeader string

	// MaxBodyBytes caps request bodies. Default is 64KiB.
	MaxBodyBytes int64

	// MetricsReg registers handler metrics. Optional.
	MetricsReg prometheus.Registerer

	Logger *zap.Logger
}

func (opts *HandlerOpts) Init() error {
	if opts.Orchestrator == nil {
		return errors.New("nil orchestrator")
	}
	if opts.Gate == nil {
		return errors.New("nil auth gate")
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	if opts.HealthPath == "" {
		opts.HealthPath = "/health"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return nil
}

type Handler struct {
	opts    HandlerOpts
	metrics *metrics
}

func NewHandler(opts HandlerOpts) (*Handler, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}
	m := newMetrics()
	if opts.MetricsReg != nil {
		if err := m.register(opts.MetricsReg); err != nil {
			return nil, err
		}
	}
	return &Handler{opts: opts, metrics: m}, nil
}

// Interfaces to abstract http server implementations
type ResponseWriter interface {
	Header() Header
	Write([]byte) (int, error)
	WriteHeader(statusCode int)
}

type Header interface {
	Get(key string) string
	Set(key string, value string)
}

type Request interface {
	URL() *url.URL
	Body() io.ReadCloser
	Header() Header
	Method() string
	Context() context.Context
	RequestURI() string
	GetRemoteAddr() string
}

func (h *Handler) ServeHTTP(w ResponseWriter, req Request) {
	path := req.URL().Path

	// 1. Health check - no auth
	if path == h.opts.HealthPath && req.Method() == http.MethodGet {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}

	reqID := uuid.NewString()
	w.Header().Set("X-Request-Id", reqID)
	lg := h.opts.Logger.With(
		zap.String("req_id", reqID),
		zap.String("from", clientAddr(req, h.opts.SrcIPHeader)),
		zap.String("url", req.RequestURI()),
	)

	// 2. Bearer gate, before anything reaches the orchestrator
	if !h.opts.Gate.Allow(req.Header().Get("Authorization")) {
		h.metrics.requests.WithLabelValues(routeLabel(path), "unauthorized").Inc()
		w.Header().Set("WWW-Authenticate", `Bearer realm="nscache"`)
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Unauthorized"))
		return
	}

	if req.Method() != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("404 Not Found"))
		return
	}

	start := time.Now()
	var res orchestrator.Result
	switch path {
	case RouteQuery:
		res = h.serveQuery(w, req)
	case RouteUpdate:
		res = h.serveUpdate(w, req)
	case RouteCreate:
		res = h.serveCreate(w, req)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("404 Not Found"))
		return
	}

	h.metrics.observe(path, res.Kind, time.Since(start))
	h.logResult(lg, path, res)
}

func (h *Handler) logResult(lg *zap.Logger, path string, res orchestrator.Result) {
	fields := []zap.Field{zap.String("route", path), zap.Stringer("result", res.Kind), zap.String("domain", res.Domain)}
	switch res.Kind {
	case orchestrator.KindPartialReconciliation, orchestrator.KindCacheCorrupt:
		lg.Error("request failed", append(fields, zap.Error(res.Err))...)
	case orchestrator.KindBadRequest:
		lg.Debug("bad request", append(fields, zap.Error(res.Err))...)
	default:
		if res.Err != nil {
			lg.Warn("request failed", append(fields, zap.Error(res.Err))...)
			return
		}
		lg.Debug("request served", fields...)
	}
}

func (h *Handler) readBody(req Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(req.Body(), h.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > h.opts.MaxBodyBytes {
		return nil, errBodyTooLarge
	}
	return b, nil
}

func routeLabel(path string) string {
	switch path {
	case RouteQuery, RouteUpdate, RouteCreate:
		return path
	default:
		return "other"
	}
}

func clientAddr(req Request, customHeader string) string {
	if addr, err := getRemoteAddr(req, customHeader); err == nil {
		return addr.String()
	}
	return req.GetRemoteAddr()
}

func getRemoteAddr(req Request, customHeader string) (netip.Addr, error) {
	// Priority check for common proxy headers using the static package-level slice
	for _, h := range proxyHeaders {
		if val := req.Header().Get(h); val != "" {
			// Handle potential list in X-Forwarded-For (take first)
			ipStr := val
			if h == "X-Forwarded-For" {
				ipStr, _, _ = strings.Cut(val, ",")
			}
			if addr, err := netip.ParseAddr(strings.TrimSpace(ipStr)); err == nil {
				return addr.Unmap(), nil
			}
		}
	}

	if customHeader != "" {
		if val := req.Header().Get(customHeader); val != "" {
			if addr, err := netip.ParseAddr(val); err == nil {
				return addr.Unmap(), nil
			}
		}
	}

	// Fallback to direct remote address
	addrport, err := netip.ParseAddrPort(req.GetRemoteAddr())
	if err != nil {
		return netip.Addr{}, err
	}
	return addrport.Addr().Unmap(), nil
}
