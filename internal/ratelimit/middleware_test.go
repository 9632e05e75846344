package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	lim, err := New(memory.NewStore(), "1-M")
	require.NoError(t, err)

	h := Handler{Limiter: lim, Key: ByIP("login")}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.NotEmpty(t, rr.Header().Get("Retry-After"))
	require.Contains(t, rr.Body.String(), "RATE_LIMITED")

	other := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	require.Equal(t, http.StatusOK, rr.Code)
}

type brokenStore struct{ limiter.Store }

func (brokenStore) Get(context.Context, string, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func TestHandlerMiddlewareFailsOpen(t *testing.T) {
	lim, err := New(brokenStore{}, "1-S")
	require.NoError(t, err)

	var seen error
	h := Handler{Limiter: lim, Key: ByIP("x"), OnError: func(err error) { seen = err }}.Middleware(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualError(t, seen, "store down")
}

func TestNewRejectsBadRate(t *testing.T) {
	_, err := New(memory.NewStore(), "ten per minute")
	require.Error(t, err)
}
