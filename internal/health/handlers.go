package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

var draining atomic.Bool

// SetReady flips readiness. The API clears it when shutdown starts so load
// balancers drain traffic before the listener closes.
func SetReady(v bool) { draining.Store(!v) }

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Probe checks the Postgres pool and Redis client shared by the API and worker.
type Probe struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

func (p Probe) PingDB(ctx context.Context, timeout time.Duration) error {
	if p.DB == nil {
		return errors.New("database not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.DB.Ping(ctx)
}

func (p Probe) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}

// Handler serves /health/live and /health/ready.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Report is the readiness body. Checks maps each dependency to "ok" or the
// probe error.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes Postgres and Redis concurrently. Any failed probe or a
// draining process answers 503.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	report := h.check(r.Context())
	code := http.StatusOK
	if report.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}

func (h Handler) check(ctx context.Context) Report {
	report := Report{Status: "ready", Checks: map[string]string{}}
	if h.Checker == nil {
		report.Status = "unavailable"
		return report
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	probe := func(name string, fn func() error) {
		g.Go(func() error {
			result := "ok"
			if err := fn(); err != nil {
				result = err.Error()
			}
			mu.Lock()
			report.Checks[name] = result
			mu.Unlock()
			return nil
		})
	}
	probe("db", func() error { return h.Checker.PingDB(ctx, orDefault(h.DBTimeout, 500*time.Millisecond)) })
	probe("redis", func() error { return h.Checker.PingRedis(ctx, orDefault(h.RedisTimeout, 300*time.Millisecond)) })
	_ = g.Wait()

	for _, result := range report.Checks {
		if result != "ok" {
			report.Status = "degraded"
		}
	}
	if draining.Load() {
		report.Status = "draining"
	}
	return report
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
