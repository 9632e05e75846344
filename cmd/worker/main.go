package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/app"
	"github.com/noah-isme/backend-invoice/internal/config"
	"github.com/noah-isme/backend-invoice/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, ring := app.NewLogger(cfg, "worker")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	shutdownTracing := app.InitTracing(ctx, cfg, "invoice-worker", logger)
	deps, err := app.Open(ctx, cfg, logger, ring, "worker")
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	services, err := app.NewServices(context.Background(), deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise services")
	}

	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse task redis url")
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency:     cfg.WorkerConcurrency,
		Queues:          map[string]int{tasks.QueueDefault: 1},
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          asynqLogger{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error().Err(err).
				Str("task", task.Type()).
				Int("retry", retried).
				Int("max_retry", maxRetry).
				Msg("task failed")
		}),
	})

	deliverer := &tasks.Deliverer{
		Render: services.Render,
		Mail:   services.Mailer,
		Logger: logger,
	}

	// Run blocks until SIGINT or SIGTERM and drains in-flight tasks.
	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Run(tasks.NewServeMux(deliverer)); err != nil {
		logger.Error().Err(err).Msg("worker stopped with error")
		return
	}
	logger.Info().Msg("worker shutdown complete")
}

// asynqLogger routes asynq's internal logs through zerolog.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
