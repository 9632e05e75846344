// Package lock serialises work on a single invoice across API replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned when the key stays held past Locker.MaxWait.
var ErrBusy = errors.New("lock: resource busy")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker is a SETNX lease on a Redis key. Only the holder's token can
// release it, so a lease that expired mid-callback is never freed by the
// slow caller.
type Locker struct {
	Client       *redis.Client
	Prefix       string
	TTL          time.Duration
	RetryBackoff time.Duration
	MaxWait      time.Duration
}

// InvoiceKey names the lease guarding mutations of a single invoice.
func InvoiceKey(scope, invoiceID string) string {
	return scope + ":invoice:" + invoiceID
}

// WithLock runs fn while holding key. It waits for a busy key until ctx is
// done or MaxWait elapses.
func (l Locker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if l.Client == nil {
		return errors.New("lock: redis client not configured")
	}
	key = l.key(key)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer func() {
		// the caller's ctx may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.Client, []string{key}, token).Err()
	}()
	return fn(ctx)
}

func (l Locker) acquire(ctx context.Context, key, token string) error {
	var deadline <-chan time.Time
	if l.MaxWait > 0 {
		t := time.NewTimer(l.MaxWait)
		defer t.Stop()
		deadline = t.C
	}
	for {
		ok, err := l.Client.SetNX(ctx, key, token, l.ttl()).Result()
		if err != nil {
			return fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("%w: %s", ErrBusy, key)
		case <-time.After(l.backoff()):
		}
	}
}

func (l Locker) key(k string) string {
	if l.Prefix == "" {
		return "lock:" + k
	}
	return l.Prefix + ":" + k
}

func (l Locker) ttl() time.Duration {
	if l.TTL <= 0 {
		return 10 * time.Second
	}
	return l.TTL
}

func (l Locker) backoff() time.Duration {
	if l.RetryBackoff <= 0 {
		return 50 * time.Millisecond
	}
	return l.RetryBackoff
}
