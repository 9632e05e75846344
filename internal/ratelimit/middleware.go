package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// Handler enforces a rate limit before delegating to the next handler.
type Handler struct {
	Limiter *limiter.Limiter
	Key     func(*http.Request) string
	OnError func(error)
	Now     func() time.Time
}

// Middleware implements the http.Handler middleware interface. Store errors
// fail open.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil || h.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		res, err := h.Limiter.Get(r.Context(), h.Key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			} else {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rate limit store unavailable")
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset, 10))

		if res.Reached {
			retryAfter := res.Reset - h.now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
