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

package redis_cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang/snappy"
	"go.uber.org/zap"

	"github.com/fromafrica/nscache/pkg/cache"
	"github.com/fromafrica/nscache/pkg/utils"
)

var nopLogger = zap.NewNop()

const (
	flagRaw    byte = 0
	flagSnappy byte = 1
)

type RedisCacheOpts struct {
	// Client cannot be nil.
	Client redis.Cmdable

	// ClientCloser closes Client when RedisCache.Close is called.
	// Optional.
	ClientCloser io.Closer

	// ClientTimeout specifies the timeout for read and write operations.
	// It only shortens the caller's deadline. Default is 1s.
	ClientTimeout time.Duration

	// KeyPrefix is prepended to every domain. Optional.
	KeyPrefix string

	// TTL of stored keys. Zero means no expiry.
	TTL time.Duration

	// Compress stores values snappy compressed. Values written with
	// either setting can always be read back.
	Compress bool

	// Logger is the *zap.Logger for this RedisCache.
	// A nil Logger will disable logging.
	Logger *zap.Logger
}

func (opts *RedisCacheOpts) Init() error {
	if opts.Client == nil {
		return errors.New("nil client")
	}
	utils.SetDefaultNum(&opts.ClientTimeout, time.Second)
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

type RedisCache struct {
	opts           RedisCacheOpts
	clientDisabled uint32
}

var _ cache.Backend = (*RedisCache)(nil)

func NewRedisCache(opts RedisCacheOpts) (*RedisCache, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}
	return &RedisCache{
		opts: opts,
	}, nil
}

func (r *RedisCache) disabled() bool {
	return atomic.LoadUint32(&r.clientDisabled) != 0
}

// disableClient makes every call fail fast with cache.ErrUnavailable until
// redis answers a ping again.
func (r *RedisCache) disableClient() {
	if atomic.CompareAndSwapUint32(&r.clientDisabled, 0, 1) {
		r.opts.Logger.Warn("redis temporarily disabled")
		go func() {
			const maxBackoff = time.Second * 30
			backoff := time.Millisecond * 100
			for {
				time.Sleep(backoff)
				ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
				err := r.opts.Client.Ping(ctx).Err()
				cancel()
				if err != nil {
					if backoff >= maxBackoff {
						backoff = maxBackoff
					} else {
						backoff += time.Duration(rand.Intn(1000))*time.Millisecond + time.Second
					}
					r.opts.Logger.Warn("redis ping failed", zap.Error(err), zap.Duration("next_ping", backoff))
					continue
				}
				atomic.StoreUint32(&r.clientDisabled, 0)
				r.opts.Logger.Info("redis enabled")
				return
			}
		}()
	}
}

// onClientErr disables the client unless the caller gave up first.
// An expired caller deadline says nothing about redis health, only the
// client's own timeout does.
func (r *RedisCache) onClientErr(callerCtx context.Context, err error) {
	if errors.Is(err, context.Canceled) || callerCtx.Err() != nil {
		return
	}
	r.disableClient()
}

func (r *RedisCache) key(domain string) string {
	return r.opts.KeyPrefix + domain
}

func (r *RedisCache) Get(callerCtx context.Context, domain string) (string, bool, error) {
	if r.disabled() {
		return "", false, cache.ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(callerCtx, r.opts.ClientTimeout)
	defer cancel()
	b, err := r.opts.Client.Get(ctx, r.key(domain)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		r.opts.Logger.Warn("redis get", zap.String("domain", domain), zap.Error(err))
		r.onClientErr(callerCtx, err)
		return "", false, fmt.Errorf("redis get: %w", err)
	}

	v, err := unpackValue(b)
	if err != nil {
		return "", false, fmt.Errorf("redis data unpack: %w: %w", cache.ErrCorrupt, err)
	}
	return v, true, nil
}

// Put stores record into redis.
func (r *RedisCache) Put(callerCtx context.Context, domain, record string) error {
	if r.disabled() {
		return cache.ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(callerCtx, r.opts.ClientTimeout)
	defer cancel()
	data := packValue(record, r.opts.Compress)
	if err := r.opts.Client.Set(ctx, r.key(domain), data, r.opts.TTL).Err(); err != nil {
		r.opts.Logger.Warn("redis set", zap.String("domain", domain), zap.Error(err))
		r.onClientErr(callerCtx, err)
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (r *RedisCache) Close() error {
	if f := r.opts.ClientCloser; f != nil {
		return f.Close()
	}
	return nil
}

// Len returns the size of the whole redis db, which may hold keys that
// are not ours. Returns -1 on errors.
func (r *RedisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()
	i, err := r.opts.Client.DBSize(ctx).Result()
	if err != nil {
		r.opts.Logger.Error("dbsize", zap.Error(err))
		return -1
	}
	return int(i)
}

// packValue prefixes v with a one byte encoding flag.
func packValue(v string, compress bool) []byte {
	if !compress {
		b := make([]byte, 1+len(v))
		b[0] = flagRaw
		copy(b[1:], v)
		return b
	}
	enc := snappy.Encode(nil, []byte(v))
	b := make([]byte, 1+len(enc))
	b[0] = flagSnappy
	copy(b[1:], enc)
	return b
}

func unpackValue(b []byte) (string, error) {
	if len(b) < 1 {
		return "", errors.New("b is too short")
	}
	switch b[0] {
	case flagRaw:
		return string(b[1:]), nil
	case flagSnappy:
		d, err := snappy.Decode(nil, b[1:])
		if err != nil {
			return "", err
		}
		return string(d), nil
	default:
		return "", fmt.Errorf("unknown value flag %d", b[0])
	}
}
