package common

import (
	"context"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const defaultIdemTTL = 24 * time.Hour

// Idem provides an Idempotency-Key middleware backed by Redis. Keys are
// scoped to the caller and route so two users cannot collide. A request that
// fails with a 5xx releases its key so the client may retry.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func (i Idem) key(r *http.Request, header string) string {
	userID, _ := UserID(r.Context())
	return "idem:" + Sha256Hex(strings.Join([]string{userID, r.Method, r.URL.Path, header}, "|"))
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl := i.TTL
		if ttl <= 0 {
			ttl = defaultIdemTTL
		}
		key := i.key(r, header)
		ok, err := i.R.SetNX(r.Context(), key, "locked", ttl).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}

		rec := &idemRecorder{ResponseWriter: w}
		defer func() {
			if rec.status >= http.StatusInternalServerError {
				_ = i.R.Del(context.Background(), key).Err()
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

type idemRecorder struct {
	http.ResponseWriter
	status int
}

func (r *idemRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *idemRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
