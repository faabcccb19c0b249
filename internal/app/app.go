// Package app wires stores, cache, metrics and the simulation service from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"valuation-lab/internal/cache"
	"valuation-lab/internal/config"
	"valuation-lab/internal/logging"
	"valuation-lab/internal/observability"
	"valuation-lab/internal/service"
	"valuation-lab/internal/simulation"
	"valuation-lab/internal/storage"
	chstore "valuation-lab/internal/storage/clickhouse"
	"valuation-lab/internal/storage/memory"
	"valuation-lab/internal/storage/migrations"
	pgstore "valuation-lab/internal/storage/postgres"
)

var log = logging.Component("app")

// App holds the wired components.
type App struct {
	Service *service.Service
	Metrics *observability.Metrics
	Runs    storage.SimulationStore

	closers []func()
}

// Close stops the service and releases connections in reverse order.
func (a *App) Close() {
	a.Service.Close()
	a.closeAll()
}

// Build connects the configured backends. Postgres backs the run store, ClickHouse the
// outcome store and Redis the result cache; each falls back to memory or is disabled when
// its address is empty. Migrations are applied on connect.
func Build(ctx context.Context, cfg *config.Config, reg *prometheus.Registry) (*App, error) {
	a := &App{Metrics: observability.NewMetrics(cfg.Metrics.Namespace, reg)}

	opts := service.Options{
		Engine:   simulation.NewEngine(simulation.WithObserver(a.Metrics)),
		Metrics:  a.Metrics,
		Defaults: cfg.Simulation,
	}

	if cfg.Postgres.DSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			a.closeAll()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		opts.RunStore = pgstore.NewSimulationStore(pool)
		log.Info("run store: postgres")
	} else {
		opts.RunStore = memory.NewSimulationStore()
		log.Info("run store: memory")
	}

	switch {
	case cfg.ClickHouse.DSN != "":
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		a.closers = append(a.closers, func() { _ = conn.Close() })
		opts.OutcomeStore = chstore.NewOutcomeStore(conn)
		log.Info("outcome store: clickhouse")
	case cfg.Simulation.KeepOutcomes:
		opts.OutcomeStore = memory.NewOutcomeStore()
		log.Info("outcome store: memory")
	}

	if cfg.Redis.Addr != "" {
		client, err := cache.New(ctx, cache.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			a.closeAll()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		opts.Cache = cache.NewResultCache(client, cfg.Redis.TTL)
		log.Infof("result cache: redis %s", cfg.Redis.Addr)
	}

	a.Runs = opts.RunStore
	a.Service = service.New(opts)
	return a, nil
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
