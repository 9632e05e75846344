package resilience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxRetryAfter caps how long a provider's Retry-After can stall a request.
const maxRetryAfter = 5 * time.Second

// Config is the outbound policy for one provider client.
type Config struct {
	Timeout       time.Duration
	BaseBackoff   time.Duration
	MaxAttempts   int
	JitterPercent int
	MinRequests   int
	FailureRate   float64
	OpenFor       time.Duration
}

// NewHTTPClient returns a traced client with its own breaker labelled target.
func NewHTTPClient(target string, cfg Config) HTTPClient {
	return HTTPClient{
		Target: target,
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Breaker: NewBreaker(BreakerConfig{
			Target:      target,
			MinRequests: cfg.MinRequests,
			FailureRate: cfg.FailureRate,
			OpenFor:     cfg.OpenFor,
		}),
		BaseBackoff: cfg.BaseBackoff,
		MaxAttempts: cfg.MaxAttempts,
		Jitter:      float64(cfg.JitterPercent) / 100,
	}
}

// HTTPClient retries 5xx and 429 responses with exponential backoff and
// stops calling a target whose breaker is open.
type HTTPClient struct {
	Target      string
	Client      *http.Client
	Breaker     *Breaker
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
	Fallback    func(context.Context, *http.Request, error) (*http.Response, error)
}

// StatusError is the last upstream status once retries are exhausted.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("resilience: upstream responded %s", e.Status)
}

// Do sends req, buffering its body so every attempt replays the same bytes.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	body, err := readBody(req)
	if err != nil {
		return nil, err
	}
	attempts := max(cl.MaxAttempts, 1)
	target := cl.target()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
			OutboundAttempts.WithLabelValues(target, "rejected").Inc()
			lastErr = ErrOpenCircuit
			break
		}

		attemptReq := req.Clone(ctx)
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
			attemptReq.ContentLength = int64(len(body))
		}
		resp, err := cl.Client.Do(attemptReq)

		var wait time.Duration
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			lastErr = &StatusError{Code: resp.StatusCode, Status: resp.Status}
			wait = retryAfter(resp.Header.Get("Retry-After"))
			discard(resp)
		default:
			cl.report(ctx, true)
			OutboundAttempts.WithLabelValues(target, "ok").Inc()
			return resp, nil
		}
		cl.report(ctx, false)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == attempts {
			OutboundAttempts.WithLabelValues(target, "exhausted").Inc()
			break
		}
		OutboundAttempts.WithLabelValues(target, "retry").Inc()
		if wait == 0 {
			wait = Backoff(cl.BaseBackoff, attempt, cl.Jitter)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	if cl.Fallback != nil {
		return cl.Fallback(ctx, req, lastErr)
	}
	return nil, lastErr
}

// Backoff is base*2^(attempt-1), spread by +/- jitter (0.2 means 20%).
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	d := base << (attempt - 1)
	if jitter <= 0 {
		return d
	}
	spread := float64(d) * jitter
	return d + time.Duration((rand.Float64()*2-1)*spread)
}

func (cl HTTPClient) report(ctx context.Context, ok bool) {
	if cl.Breaker != nil {
		cl.Breaker.Report(ctx, ok)
	}
}

func (cl HTTPClient) target() string {
	if cl.Target != "" {
		return cl.Target
	}
	if cl.Breaker != nil {
		return cl.Breaker.cfg.Target
	}
	return "default"
}

func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("resilience: buffer request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
