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

package server

import (
	"context"
	"io"
	"net/url"

	eHttp "gitlab.com/go-extension/http"

	H "github.com/fromafrica/nscache/pkg/server/http_handler"
)

// gitlab.com/go-extension/http wrapper (used by ServeHTTP)
type eHttpHandlerWrapper struct {
	s *Server
}

func (h *eHttpHandlerWrapper) ServeHTTP(w eHttp.ResponseWriter, r *eHttp.Request) {
	h.s.opts.HttpHandler.ServeHTTP(&eResponseWriterWrapper{w}, &eRequestWrapper{r})
}

// Request wrapper
type eRequestWrapper struct{ r *eHttp.Request }

func (r *eRequestWrapper) URL() *url.URL            { return r.r.URL }
func (r *eRequestWrapper) Body() io.ReadCloser      { return r.r.Body }
func (r *eRequestWrapper) Header() H.Header         { return r.r.Header }
func (r *eRequestWrapper) Method() string           { return r.r.Method }
func (r *eRequestWrapper) Context() context.Context { return r.r.Context() }
func (r *eRequestWrapper) RequestURI() string       { return r.r.RequestURI }
func (r *eRequestWrapper) GetRemoteAddr() string    { return r.r.RemoteAddr }

// ResponseWriter wrapper
type eResponseWriterWrapper struct{ w eHttp.ResponseWriter }

func (w *eResponseWriterWrapper) Header() H.Header            { return w.w.Header() }
func (w *eResponseWriterWrapper) Write(b []byte) (int, error) { return w.w.Write(b) }
func (w *eResponseWriterWrapper) WriteHeader(code int)        { w.w.WriteHeader(code) }
