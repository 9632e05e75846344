package ratelimit

import (
	"net/http"
	"strings"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// NewRedisStore returns a limiter store sharing the application Redis client.
func NewRedisStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	if prefix == "" {
		prefix = "rl"
	}
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix, MaxRetry: 3})
}

// New parses a formatted rate such as "10-M" or "100-H".
func New(store limiter.Store, formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(strings.TrimSpace(formatted))
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}

// ByIP buckets callers per client address within scope.
func ByIP(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		return scope + ":" + common.ClientIP(r)
	}
}
