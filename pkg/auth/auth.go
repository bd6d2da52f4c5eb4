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

// Package auth implements the bearer token gate in front of the api.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var nopLogger = zap.NewNop()

var ErrNoToken = errors.New("no api token configured")

type GateOpts struct {
	// Token is a static token. Ignored if File is set.
	Token string

	// File holds the token. Surrounding whitespace is trimmed. The file
	// is watched and reloaded on change.
	File string

	// Logger is the *zap.Logger for this Gate.
	// A nil Logger will disable logging.
	Logger *zap.Logger
}

func (opts *GateOpts) Init() error {
	if len(opts.Token) == 0 && len(opts.File) == 0 {
		return ErrNoToken
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

// Gate checks Authorization headers. It is safe for concurrent use.
type Gate struct {
	opts    GateOpts
	token   atomic.Value // []byte
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewGate(opts GateOpts) (*Gate, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}
	g := &Gate{opts: opts, done: make(chan struct{})}

	if len(opts.File) == 0 {
		g.token.Store([]byte(opts.Token))
		return g, nil
	}

	if err := g.loadFile(); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to init token file watcher, %w", err)
	}
	// Watch the dir, editors and secret mounts replace the file.
	if err := w.Add(filepath.Dir(opts.File)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch token file, %w", err)
	}
	g.watcher = w
	go g.watch()
	return g, nil
}

func (g *Gate) loadFile() error {
	b, err := os.ReadFile(g.opts.File)
	if err != nil {
		return fmt.Errorf("failed to read token file, %w", err)
	}
	t := strings.TrimSpace(string(b))
	if len(t) == 0 {
		return ErrNoToken
	}
	g.token.Store([]byte(t))
	return nil
}

func (g *Gate) watch() {
	defer close(g.done)
	name := filepath.Clean(g.opts.File)
	for {
		select {
		case e, ok := <-g.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != name || !e.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if err := g.loadFile(); err != nil {
				// Keep serving with the previous token.
				g.opts.Logger.Warn("token reload failed", zap.String("file", name), zap.Error(err))
				continue
			}
			g.opts.Logger.Info("token reloaded", zap.String("file", name))
		case err, ok := <-g.watcher.Errors:
			if !ok {
				return
			}
			g.opts.Logger.Warn("token file watcher", zap.Error(err))
		}
	}
}

// Allow reports whether the value of an Authorization header carries the
// current token.
func (g *Gate) Allow(authorization string) bool {
	scheme, cred, ok := strings.Cut(authorization, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	cred = strings.TrimSpace(cred)
	if len(cred) == 0 {
		return false
	}
	want := g.token.Load().([]byte)
	return subtle.ConstantTimeCompare([]byte(cred), want) == 1
}

func (g *Gate) Close() error {
	if g.watcher == nil {
		return nil
	}
	err := g.watcher.Close()
	<-g.done
	return err
}
