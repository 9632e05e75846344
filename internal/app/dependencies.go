package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/config"
	"github.com/noah-isme/backend-invoice/internal/db"
	"github.com/noah-isme/backend-invoice/internal/obs"
)

// Dependencies holds the process-wide clients shared by the API and the worker.
type Dependencies struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Logs       *obs.RingSink
	DB         *pgxpool.Pool
	Store      *db.Store
	Redis      *redis.Client
	Tasks      *asynq.Client
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewLogger builds the root logger. Every event is also kept in the returned
// ring sink for the admin log endpoint.
func NewLogger(cfg *config.Config, component string) (zerolog.Logger, *obs.RingSink) {
	ring := obs.NewRingSink(cfg.LogRingSize)
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel, ring).
		With().Str("env", cfg.AppEnv).Str("component", component).Logger()
	return logger, ring
}

// Open connects Postgres, Redis and the task client. Callers own Close.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, ring *obs.RingSink, component string) (*Dependencies, error) {
	d := &Dependencies{
		Config:     cfg,
		Logger:     logger,
		Logs:       ring,
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	}
	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, d.Registerer)
	}

	pool, err := OpenPool(ctx, cfg, "invoice-"+component)
	if err != nil {
		return nil, err
	}
	d.DB = pool
	d.Store = db.NewStore(pool)

	rdb, err := OpenRedis(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	d.Redis = rdb

	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("parse task redis url: %w", err)
	}
	d.Tasks = asynq.NewClient(opt)
	return d, nil
}

// Close releases every client Open created.
func (d *Dependencies) Close() {
	if d.Tasks != nil {
		if err := d.Tasks.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close task client")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// OpenPool connects and pings Postgres with query tracing enabled.
func OpenPool(ctx context.Context, cfg *config.Config, appName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.DBMaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis connects Redis and instruments it for tracing and metrics.
// Instrumentation failures are logged, not fatal.
func OpenRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if cfg.TracingEnabled {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	if cfg.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// InitTracing installs the global tracer provider when tracing is enabled.
// The returned shutdown is never nil.
func InitTracing(ctx context.Context, cfg *config.Config, service string, logger zerolog.Logger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !cfg.TracingEnabled {
		return noop
	}
	shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   service,
		Endpoint:      cfg.OTLPEndpoint,
		Exporter:      cfg.TracingExporter,
		SamplingRatio: cfg.TracingSampling,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
		cfg.TracingEnabled = false
		return noop
	}
	return shutdown
}
