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
	"net"
	"time"

	"github.com/pires/go-proxyproto"
	"golang.org/x/net/netutil"
)

const proxyHeaderTimeout = time.Second * 5

type ListenerOpts struct {
	// ProxyProtocol accepts a PROXY protocol header on each connection.
	ProxyProtocol bool

	// MaxConns limits concurrent connections. Zero means no limit.
	MaxConns int
}

// WrapListener applies opts to l.
func WrapListener(l net.Listener, opts ListenerOpts) net.Listener {
	if opts.MaxConns > 0 {
		l = netutil.LimitListener(l, opts.MaxConns)
	}
	if opts.ProxyProtocol {
		l = &proxyproto.Listener{Listener: l, ReadHeaderTimeout: proxyHeaderTimeout}
	}
	return l
}
