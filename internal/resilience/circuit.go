// Package resilience guards outbound calls to payment providers with a
// circuit breaker and bounded retries.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the breaker refuses a call.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	}
	return "unknown"
}

// BreakerConfig tunes a Breaker. Zero values fall back to defaults.
type BreakerConfig struct {
	Target string
	// MinRequests outcomes must be in the window before the failure rate
	// can open the breaker.
	MinRequests int
	FailureRate float64
	OpenFor     time.Duration
	// Window is how many recent outcomes are kept; defaults to 2*MinRequests.
	Window int
	Logger *zerolog.Logger
	Now    func() time.Time
}

// Breaker opens when the failure rate over the last Window outcomes reaches
// FailureRate. After OpenFor it lets a single probe through.
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    State
	outcomes []bool
	next     int
	filled   int
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker builds a closed breaker and publishes its state gauge.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Target == "" {
		cfg.Target = "default"
	}
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = 1
	}
	if cfg.FailureRate <= 0 || cfg.FailureRate > 1 {
		cfg.FailureRate = 0.5
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	if cfg.Window < cfg.MinRequests {
		cfg.Window = cfg.MinRequests * 2
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	b := &Breaker{cfg: cfg, outcomes: make([]bool, cfg.Window)}
	BreakerState.WithLabelValues(cfg.Target).Set(0)
	return b
}

// State reports the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if b.cfg.Now().Sub(b.openedAt) < b.cfg.OpenFor {
			return false
		}
		b.transition(ctx, HalfOpen)
		b.probing = true
		return true
	default:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
}

// Report records the outcome of a call admitted by Allow.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if success {
			b.transition(ctx, Closed)
		} else {
			b.transition(ctx, Open)
		}
		return
	}

	if b.filled == len(b.outcomes) && !b.outcomes[b.next] {
		b.failures--
	}
	b.outcomes[b.next] = success
	b.next = (b.next + 1) % len(b.outcomes)
	if b.filled < len(b.outcomes) {
		b.filled++
	}
	if !success {
		b.failures++
	}
	if b.filled >= b.cfg.MinRequests && float64(b.failures)/float64(b.filled) >= b.cfg.FailureRate {
		b.transition(ctx, Open)
	}
}

func (b *Breaker) transition(ctx context.Context, to State) {
	from := b.state
	b.state = to
	b.next, b.filled, b.failures = 0, 0, 0
	if to == Open {
		b.openedAt = b.cfg.Now()
	}

	target := b.cfg.Target
	BreakerState.WithLabelValues(target).Set(float64(to))
	BreakerTransitions.WithLabelValues(target, from.String(), to.String()).Inc()

	logger := b.cfg.Logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = l
	}
	if logger == nil {
		return
	}
	evt := logger.Warn()
	if to == Closed {
		evt = logger.Info()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Str("target", target).Str("from", from.String()).Str("to", to.String()).Msg("breaker transition")
}
