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

package coremain

import (
	"errors"
	"fmt"
	"time"

	"github.com/fromafrica/nscache/mlog"
	"github.com/fromafrica/nscache/pkg/utils"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type Config struct {
	Log   mlog.LogConfig `yaml:"log"`
	HTTP  HTTPConfig     `yaml:"http"`
	API   APIConfig      `yaml:"api"`
	DNS   DNSConfig      `yaml:"dns"`
	Auth  AuthConfig     `yaml:"auth"`
	Cache CacheConfig    `yaml:"cache"`
	Store StoreConfig    `yaml:"store"`
	Sync  SyncConfig     `yaml:"sync"`
}

// HTTPConfig is the record api listener.
type HTTPConfig struct {
	Listen              string `yaml:"listen"`
	ProxyProtocol       bool   `yaml:"proxy_protocol"`          // accepting the PROXYProtocol
	MaxConns            int    `yaml:"max_conns"`               // zero means no limit
	IdleTimeout         uint   `yaml:"idle_timeout"`            // (sec)
	HealthPath          string `yaml:"health_path"`             // health check endpoint path
	MaxBodyBytes        int64  `yaml:"max_body_bytes"`          // request body cap
	GetUserIPFromHeader string `yaml:"get_user_ip_from_header"` // except "True-Client-IP" "X-Real-IP" "X-Forwarded-For".
}

// APIConfig is the metrics and pprof listener. Disabled if HTTP is empty.
type APIConfig struct {
	HTTP string `yaml:"http"`
}

type DNSConfig struct {
	Listeners    []DNSListenerConfig `yaml:"listeners"`
	TTL          uint32              `yaml:"ttl"`           // (sec) used when a record has no ttl.
	QueryTimeout uint                `yaml:"query_timeout"` // (sec)
}

type DNSListenerConfig struct {
	// Protocol: "", "udp" -> udp
	// "tcp" -> tcp
	Protocol string `yaml:"protocol"`

	// Addr: server "host:port" addr.
	Addr string `yaml:"addr"`

	ProxyProtocol bool `yaml:"proxy_protocol"` // tcp only
	MaxConns      int  `yaml:"max_conns"`      // tcp only
}

type AuthConfig struct {
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"` // watched, takes precedence over token.
}

type CacheConfig struct {
	Backend string      `yaml:"backend"` // "memory" or "redis"
	Size    int         `yaml:"size"`    // memory only, zero means unbounded.
	TTL     uint        `yaml:"ttl"`     // (sec) zero means no expiry.
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Timeout  int    `yaml:"timeout"` // (ms)
	Prefix   string `yaml:"prefix"`
	Compress bool   `yaml:"compress"`
}

type StoreConfig struct {
	Enabled bool `yaml:"enabled"`

	// URL of the PostgreSQL database. If empty, it is built from the
	// DATABASE_* environment variables.
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
	MaxConns    int32  `yaml:"max_conns"`
}

type SyncConfig struct {
	StoreTimeout        int  `yaml:"store_timeout"` // (ms) bound of each cache or store call.
	ValidateCacheUpdate bool `yaml:"validate_cache_update"`
	ReconcileOnUpdate   bool `yaml:"reconcile_on_update"`
}

// DefaultConfig returns the configuration used when a key is not set.
func DefaultConfig() *Config {
	return &Config{
		Log: mlog.LogConfig{Level: "info"},
		HTTP: HTTPConfig{
			Listen:       ":8080",
			IdleTimeout:  10,
			HealthPath:   "/health",
			MaxBodyBytes: 64 * 1024,
		},
		DNS: DNSConfig{
			Listeners:    []DNSListenerConfig{},
			TTL:          300,
			QueryTimeout: 5,
		},
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
			Redis: RedisConfig{
				Timeout: 1000,
				Prefix:  "nscache:",
			},
		},
		Store: StoreConfig{
			AutoMigrate: true,
			MaxConns:    10,
		},
		Sync: SyncConfig{
			StoreTimeout:      2000,
			ReconcileOnUpdate: true,
		},
	}
}

// Validate checks cfg after defaults and overrides are applied.
func (cfg *Config) Validate() error {
	if len(cfg.HTTP.Listen) == 0 && len(cfg.DNS.Listeners) == 0 {
		return errors.New("no listener is configured")
	}
	if len(cfg.HTTP.Listen) > 0 && len(cfg.Auth.Token) == 0 && len(cfg.Auth.TokenFile) == 0 {
		return errors.New("http api requires auth.token or auth.token_file")
	}
	switch cfg.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if len(cfg.Cache.Redis.URL) == 0 {
			return errors.New("redis cache requires cache.redis.url")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	for i, lc := range cfg.DNS.Listeners {
		if len(lc.Addr) == 0 {
			return fmt.Errorf("dns listener #%d has no addr", i)
		}
		switch lc.Protocol {
		case "", "udp", "tcp":
		default:
			return fmt.Errorf("dns listener #%d has unknown protocol %q", i, lc.Protocol)
		}
	}
	return nil
}

func (c *SyncConfig) storeTimeout() time.Duration {
	utils.SetDefaultNum(&c.StoreTimeout, 2000)
	return time.Duration(c.StoreTimeout) * time.Millisecond
}
