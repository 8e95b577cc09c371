// Package circuit provides a small circuit breaker used to guard the
// outbound result-reporting API.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"automated-identity-matching/pkg/logging"
	"automated-identity-matching/pkg/metrics"
)

// State represents the circuit breaker state
// Closed: normal operation; HalfOpen: testing; Open: fail fast
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// Config tunes a circuit breaker instance.
type Config struct {
	Name string

	OperationTimeout  time.Duration // per-call timeout
	OpenFor           time.Duration // how long to stay open before probing
	MaxConsecFailures int           // consecutive failures to open
	WindowSize        int           // sliding window of recent calls
	FailureRate       float64       // 0..1 fraction in window to open
}

// ErrOpen indicates the breaker is open and calls are short-circuited.
var ErrOpen = errors.New("circuit open")

// result in the ring buffer
type sample struct {
	success bool
}

type Breaker struct {
	cfg        Config
	mu         sync.Mutex
	st         State
	nextProbe  time.Time
	consecFail int

	win  []sample
	idx  int
	used int

	log *logging.ComponentLogger

	mState   *metrics.Gauge
	mOpen    *metrics.Counter
	mSuccess *metrics.Counter
	mFailure *metrics.Counter
	mLatency *metrics.Histogram
}

func New(cfg Config, log *logging.Logger) *Breaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 20
	}
	b := &Breaker{
		cfg:      cfg,
		st:       Closed,
		win:      make([]sample, cfg.WindowSize),
		mState:   metrics.Default.Gauge("cb_"+cfg.Name+"_state", "Circuit breaker state (0=closed,1=open,2=half-open)"),
		mOpen:    metrics.Default.Counter("cb_"+cfg.Name+"_opens", "Circuit opened events"),
		mSuccess: metrics.Default.Counter("cb_"+cfg.Name+"_success", "Successful calls through circuit"),
		mFailure: metrics.Default.Counter("cb_"+cfg.Name+"_failure", "Failed calls through circuit"),
		mLatency: metrics.Default.Histogram("cb_"+cfg.Name+"_latency_ms", "Latency of calls (ms)", []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000}),
	}
	if log != nil {
		b.log = log.WithComponent("circuit")
	}
	b.mState.Set(0)
	return b
}

func (b *Breaker) setStateLocked(st State) {
	if b.st == st {
		return
	}
	b.st = st
	switch st {
	case Open:
		b.mOpen.Inc(1)
		b.mState.Set(1)
	case HalfOpen:
		b.mState.Set(2)
	case Closed:
		b.mState.Set(0)
	}
	if b.log != nil {
		b.log.Info("breaker state change", logging.String("name", b.cfg.Name), logging.Int("state", int(st)))
	}
}

// record adds a sample into the ring and checks open thresholds.
func (b *Breaker) record(success bool) {
	b.win[b.idx] = sample{success: success}
	if b.used < len(b.win) {
		b.used++
	}
	b.idx = (b.idx + 1) % len(b.win)

	fail := 0
	for i := 0; i < b.used; i++ {
		if !b.win[i].success {
			fail++
		}
	}
	failRate := 0.0
	if b.used > 0 {
		failRate = float64(fail) / float64(b.used)
	}

	if b.st == Closed {
		if b.cfg.MaxConsecFailures > 0 && b.consecFail >= b.cfg.MaxConsecFailures {
			b.setStateLocked(Open)
			b.nextProbe = time.Now().Add(b.cfg.OpenFor)
			return
		}
		if b.cfg.FailureRate > 0 && failRate >= b.cfg.FailureRate {
			b.setStateLocked(Open)
			b.nextProbe = time.Now().Add(b.cfg.OpenFor)
		}
	}
}

// Do runs op under the breaker. If open, it returns ErrOpen without
// calling op. op should return error only; outputs can be captured via
// closure vars.
func (b *Breaker) Do(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	if b.st == Open {
		if time.Now().Before(b.nextProbe) {
			b.mu.Unlock()
			return ErrOpen
		}
		// move to half-open for a probe
		b.setStateLocked(HalfOpen)
	}
	b.mu.Unlock()

	if b.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.OperationTimeout)
		defer cancel()
	}

	start := time.Now()
	err := op(ctx)
	b.mLatency.Observe(float64(time.Since(start).Milliseconds()))

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.consecFail++
		b.mFailure.Inc(1)
		b.record(false)
		if b.st == HalfOpen {
			// probe failed, back to open
			b.setStateLocked(Open)
			b.nextProbe = time.Now().Add(b.cfg.OpenFor)
		}
		return err
	}

	b.consecFail = 0
	b.mSuccess.Inc(1)
	b.record(true)
	if b.st == HalfOpen {
		b.setStateLocked(Closed)
	}
	return nil
}

// CurrentState reports the breaker state for health reporting.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}
