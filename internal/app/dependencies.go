package app

import (
	"context"
	"fmt"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-trek/internal/config"
	"github.com/noah-isme/backend-trek/internal/obs"
	"github.com/noah-isme/backend-trek/internal/queue"
)

// NewPool opens the pgx pool with the query tracer attached.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pcfg.ConnConfig.Tracer = obs.PGXTracer{}
	pcfg.MaxConnLifetime = time.Hour
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewRedis opens the redis client with otel instrumentation.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis: %w", err)
	}
	return client, nil
}

// NewMetricsRegistry builds a registry preloaded with process collectors.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewTaskClient opens the asynq client for enqueueing background tasks.
func NewTaskClient(cfg *config.Config) (*asynq.Client, error) {
	opt, err := queue.RedisOptFromURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return asynq.NewClient(opt), nil
}

// NewTaskServer opens the asynq server the worker process runs.
func NewTaskServer(cfg *config.Config) (*asynq.Server, error) {
	opt, err := queue.RedisOptFromURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency:              cfg.QueueConcurrency,
		Queues:                   map[string]int{cfg.QueueRedisPrefix: 1},
		DelayedTaskCheckInterval: cfg.QueuePollInterval,
	}), nil
}

// RunMigrations applies pending schema migrations from the given directory.
// A missing directory or an up-to-date schema is not an error.
func RunMigrations(sourceDir, databaseURL string) error {
	m, err := migrate.New("file://"+sourceDir, databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
