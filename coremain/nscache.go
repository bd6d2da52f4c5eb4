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
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fromafrica/nscache/mlog"
	"github.com/fromafrica/nscache/pkg/auth"
	"github.com/fromafrica/nscache/pkg/cache"
	"github.com/fromafrica/nscache/pkg/cache/mem_cache"
	"github.com/fromafrica/nscache/pkg/cache/redis_cache"
	"github.com/fromafrica/nscache/pkg/orchestrator"
	"github.com/fromafrica/nscache/pkg/record"
	"github.com/fromafrica/nscache/pkg/server"
	"github.com/fromafrica/nscache/pkg/server/dns_handler"
	"github.com/fromafrica/nscache/pkg/server/http_handler"
	"github.com/fromafrica/nscache/pkg/store"
	"github.com/fromafrica/nscache/pkg/store/pg_store"
	"github.com/fromafrica/nscache/pkg/store/pg_store/migrations"
	"github.com/fromafrica/nscache/pkg/utils"
)

const databaseEnvPrefix = "DATABASE"

type NSCache struct {
	logger *zap.Logger
	cfg    *Config

	cache cache.Backend
	store store.Store // nil if disabled
	gate  *auth.Gate  // nil if the http api is disabled
	orch  *orchestrator.Orchestrator

	httpAPIMux *http.ServeMux
	metricsReg *prometheus.Registry
}

// RunNSCache builds all components from cfg and serves until ctx is done
// or a listener fails.
func RunNSCache(ctx context.Context, cfg *Config) error {
	lg, err := mlog.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer lg.Sync()

	m, err := NewNSCache(ctx, cfg, lg)
	if err != nil {
		return err
	}

	err = m.Serve(ctx)
	if cerr := m.Close(); cerr != nil {
		err = multierror.Append(err, cerr).ErrorOrNil()
	}
	return err
}

func NewNSCache(ctx context.Context, cfg *Config, lg *zap.Logger) (_ *NSCache, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config, %w", err)
	}

	m := &NSCache{
		logger:     lg,
		cfg:        cfg,
		httpAPIMux: http.NewServeMux(),
		metricsReg: newMetricsReg(),
	}
	defer func() {
		if err != nil {
			_ = m.Close()
		}
	}()

	m.httpAPIMux.Handle("/metrics", promhttp.HandlerFor(m.metricsReg, promhttp.HandlerOpts{}))
	m.httpAPIMux.HandleFunc("/debug/pprof/", pprof.Index)
	m.httpAPIMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	m.httpAPIMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	m.httpAPIMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	m.httpAPIMux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	m.cache, err = newCache(&cfg.Cache, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to init cache, %w", err)
	}
	if err := m.GetMetricsReg().Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cache_entries",
		Help: "The number of cached records, -1 if unknown",
	}, func() float64 { return float64(m.cache.Len()) })); err != nil {
		return nil, err
	}

	if cfg.Store.Enabled {
		m.store, err = newStore(ctx, &cfg.Store, lg)
		if err != nil {
			return nil, fmt.Errorf("failed to init store, %w", err)
		}
	}

	m.orch, err = orchestrator.NewOrchestrator(orchestrator.Opts{
		Cache:               m.cache,
		Store:               m.store,
		ReconcileOnUpdate:   cfg.Sync.ReconcileOnUpdate,
		ValidateCacheUpdate: cfg.Sync.ValidateCacheUpdate,
		Validator:           record.JSONValidator{},
		StoreTimeout:        cfg.Sync.storeTimeout(),
		Logger:              lg.Named("orchestrator"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init orchestrator, %w", err)
	}
	lg.Info("orchestrator ready",
		zap.Bool("store", m.store != nil),
		zap.Bool("reconciling", m.orch.Reconciling()),
		zap.String("cache", cfg.Cache.Backend),
	)

	if len(cfg.HTTP.Listen) > 0 {
		m.gate, err = auth.NewGate(auth.GateOpts{
			Token:  cfg.Auth.Token,
			File:   cfg.Auth.TokenFile,
			Logger: lg.Named("auth"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init auth gate, %w", err)
		}
	}
	return m, nil
}

func newCache(cfg *CacheConfig, lg *zap.Logger) (cache.Backend, error) {
	ttl := utils.SecondsToDuration(cfg.TTL)
	switch cfg.Backend {
	case CacheBackendRedis:
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url, %w", err)
		}
		client := redis.NewClient(opt)
		rc, err := redis_cache.NewRedisCache(redis_cache.RedisCacheOpts{
			Client:        client,
			ClientCloser:  client,
			ClientTimeout: time.Duration(cfg.Redis.Timeout) * time.Millisecond,
			KeyPrefix:     cfg.Redis.Prefix,
			TTL:           ttl,
			Compress:      cfg.Redis.Compress,
			Logger:        lg.Named("redis_cache"),
		})
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return rc, nil
	default:
		return mem_cache.NewMemCache(cfg.Size, ttl), nil
	}
}

func newStore(ctx context.Context, cfg *StoreConfig, lg *zap.Logger) (store.Store, error) {
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		v, err := migrations.RunMigrationsUp(pool, lg.Named("migrate"))
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database, %w", err)
		}
		lg.Info("database schema ready", zap.Uint("version", v))
	}
	st, err := pg_store.NewPgStore(pg_store.PgStoreOpts{DB: pool, Pool: pool})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return st, nil
}

func openPool(ctx context.Context, cfg *StoreConfig) (*pgxpool.Pool, error) {
	url, err := databaseURL(cfg)
	if err != nil {
		return nil, err
	}
	return pg_store.NewConnectionPool(ctx, url, cfg.MaxConns)
}

func databaseURL(cfg *StoreConfig) (string, error) {
	if len(cfg.URL) > 0 {
		return cfg.URL, nil
	}
	return pg_store.DatabaseURLFromEnv(databaseEnvPrefix)
}

// Serve starts all configured listeners and blocks until ctx is done or
// one of them fails.
func (m *NSCache) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	var httpHandler *http_handler.Handler
	if len(m.cfg.HTTP.Listen) > 0 {
		var err error
		httpHandler, err = http_handler.NewHandler(http_handler.HandlerOpts{
			Orchestrator: m.orch,
			Gate:         m.gate,
			HealthPath:   m.cfg.HTTP.HealthPath,
			SrcIPHeader:  m.cfg.HTTP.GetUserIPFromHeader,
			MaxBodyBytes: m.cfg.HTTP.MaxBodyBytes,
			MetricsReg:   m.GetMetricsReg(),
			Logger:       m.logger.Named("http"),
		})
		if err != nil {
			return fmt.Errorf("failed to init http handler, %w", err)
		}
	}

	var dnsHandler dns_handler.Handler
	if len(m.cfg.DNS.Listeners) > 0 {
		h, err := dns_handler.NewEntryHandler(dns_handler.EntryHandlerOpts{
			Logger:       m.logger.Named("dns"),
			Querier:      m.orch,
			TTL:          m.cfg.DNS.TTL,
			QueryTimeout: utils.SecondsToDuration(m.cfg.DNS.QueryTimeout),
		})
		if err != nil {
			return fmt.Errorf("failed to init dns handler, %w", err)
		}
		dnsHandler = h
	}

	s := server.NewServer(server.ServerOpts{
		Logger:      m.logger.Named("server"),
		DNSHandler:  dnsHandler,
		HttpHandler: httpHandler,
		IdleTimeout: utils.SecondsToDuration(m.cfg.HTTP.IdleTimeout),
	})

	if httpHandler != nil {
		hc := m.cfg.HTTP
		g.Go(func() error {
			l, err := net.Listen("tcp", hc.Listen)
			if err != nil {
				return fmt.Errorf("failed to listen on %s, %w", hc.Listen, err)
			}
			l = server.WrapListener(l, server.ListenerOpts{ProxyProtocol: hc.ProxyProtocol, MaxConns: hc.MaxConns})
			m.logger.Info("starting http server", zap.Stringer("addr", l.Addr()))
			return serverExited("http", s.ServeHTTP(l))
		})
	}

	for _, lc := range m.cfg.DNS.Listeners {
		g.Go(func() error {
			return serverExited(lc.Protocol, startDNSListener(s, lc, m.logger))
		})
	}

	if httpAddr := m.cfg.API.HTTP; len(httpAddr) > 0 {
		apiServer := &http.Server{
			Addr:              httpAddr,
			Handler:           m.httpAPIMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			m.logger.Info("starting api http server", zap.String("addr", httpAddr))
			if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("api http server exited, %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return apiServer.Close()
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		m.logger.Info("shutting down servers")
		s.Close()
		return nil
	})

	return g.Wait()
}

func startDNSListener(s *server.Server, lc DNSListenerConfig, lg *zap.Logger) error {
	switch lc.Protocol {
	case "tcp":
		l, err := net.Listen("tcp", lc.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s, %w", lc.Addr, err)
		}
		l = server.WrapListener(l, server.ListenerOpts{ProxyProtocol: lc.ProxyProtocol, MaxConns: lc.MaxConns})
		lg.Info("starting dns server", zap.String("protocol", "tcp"), zap.Stringer("addr", l.Addr()))
		return s.ServeTCP(l)
	default:
		c, err := net.ListenPacket("udp", lc.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s, %w", lc.Addr, err)
		}
		lg.Info("starting dns server", zap.String("protocol", "udp"), zap.Stringer("addr", c.LocalAddr()))
		return s.ServeUDP(c)
	}
}

// serverExited maps ErrServerClosed, the normal shutdown result, to nil.
func serverExited(name string, err error) error {
	if err == nil || errors.Is(err, server.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("%s server exited, %w", name, err)
}

// Close releases all backends. Errors are aggregated.
func (m *NSCache) Close() error {
	var errs *multierror.Error
	if m.gate != nil {
		if err := m.gate.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("auth gate: %w", err))
		}
	}
	if m.cache != nil {
		if err := m.cache.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("cache: %w", err))
		}
	}
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("store: %w", err))
		}
	}
	return errs.ErrorOrNil()
}

func (m *NSCache) GetMetricsReg() prometheus.Registerer {
	return prometheus.WrapRegistererWithPrefix("nscache_", m.metricsReg)
}

func newMetricsReg() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}
