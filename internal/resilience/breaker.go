// Package resilience guards calls to a remote prinsp server with a circuit
// breaker and retries with backoff.
package resilience

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// State represents circuit breaker state.
type State uint32

const (
	Closed   State = iota // normal operation
	Open                  // failing fast
	HalfOpen              // probing recovery
)

func (s State) String() string {
	return [...]string{"closed", "open", "half-open"}[s]
}

// ErrOpen is returned while the breaker fails fast.
var ErrOpen = errors.New("circuit breaker open")

// Breaker implements the circuit breaker pattern with atomic state.
type Breaker struct {
	cfg           Config
	state         atomic.Uint32
	failures      atomic.Int32
	successes     atomic.Int32
	lastFailure   atomic.Int64 // unix nano
}

// New creates a breaker with config.
func New(cfg Config) *Breaker {
	b := &Breaker{cfg: cfg.withDefaults()}
	b.state.Store(uint32(Closed))
	return b
}

// Allow returns nil if a call may proceed.
func (b *Breaker) Allow() error {
	if State(b.state.Load()) != Open {
		return nil
	}
	if b.resetDue() {
		b.transition(HalfOpen)
		return nil
	}
	return ErrOpen
}

// Success records a successful call.
func (b *Breaker) Success() {
	switch State(b.state.Load()) {
	case HalfOpen:
		if b.successes.Add(1) >= int32(b.cfg.HalfOpenSuccesses) {
			b.transition(Closed)
		}
	case Closed:
		b.failures.Store(0)
	}
}

// Failure records a failed call.
func (b *Breaker) Failure() {
	b.lastFailure.Store(time.Now().UnixNano())
	count := b.failures.Add(1)

	switch State(b.state.Load()) {
	case HalfOpen:
		b.transition(Open)
	case Closed:
		if count >= int32(b.cfg.Threshold) {
			b.transition(Open)
		}
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.transition(Closed)
}

func (b *Breaker) transition(to State) {
	from := State(b.state.Swap(uint32(to)))
	if from == to {
		return
	}

	log := slog.With("breaker", b.cfg.Name, "from", from, "to", to)
	switch to {
	case Closed:
		b.failures.Store(0)
		b.successes.Store(0)
		log.Info("circuit breaker closed")
	case Open:
		b.successes.Store(0)
		log.Warn("circuit breaker opened", "failures", b.failures.Load())
	case HalfOpen:
		b.successes.Store(0)
		log.Info("circuit breaker half-open")
	}
}

func (b *Breaker) resetDue() bool {
	last := b.lastFailure.Load()
	return last == 0 || time.Since(time.Unix(0, last)) > b.cfg.ResetTimeout
}

// Execute runs fn with circuit breaker protection. Only errors for which
// counts returns true are recorded as failures; nil counts every error.
func (b *Breaker) Execute(fn func() error, counts func(error) bool) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	switch {
	case err == nil:
		b.Success()
	case counts == nil || counts(err):
		b.Failure()
	default:
		// the remote answered; it is healthy even if the call failed
		b.Success()
	}
	return err
}
