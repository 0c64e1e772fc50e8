package screen

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
	"github.com/GriffinCanCode/prinsp/internal/syncx"
)

// ErrTimeout marks a backend that missed its deadline.
var ErrTimeout = errors.New("capture timed out")

// ErrNoBackends is returned when the Capturer has nothing to try.
var ErrNoBackends = errors.New("no capture backends configured")

// Options configures a Capturer.
type Options struct {
	// Strategies to choose from; nil means DefaultStrategies(TempDir).
	Strategies []Strategy
	// Timeout for time-boxed backends; zero means CaptureTimeout.
	Timeout time.Duration
	// TempDir for file-based backends.
	TempDir string
}

// Capturer tries backends in order and remembers the last one that worked.
// The preferred backend lives in the Capturer, so separate instances learn
// independently.
type Capturer struct {
	strategies map[Backend]Strategy
	timeout    time.Duration
	preferred  *syncx.RWGuard[Backend]
}

// New creates a Capturer with no preferred backend.
func New(opts Options) *Capturer {
	strategies := opts.Strategies
	if strategies == nil {
		strategies = DefaultStrategies(opts.TempDir)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = CaptureTimeout
	}

	c := &Capturer{
		strategies: make(map[Backend]Strategy, len(strategies)),
		timeout:    timeout,
		preferred:  syncx.NewGuard(Backend(0)),
	}
	for _, s := range strategies {
		c.strategies[s.Backend()] = s
	}
	return c
}

// Preferred returns the backend tried first on the next capture.
func (c *Capturer) Preferred() (Backend, bool) {
	b := c.preferred.Get()
	return b, b.Valid()
}

// Order returns the candidates for the next capture: the preferred backend
// first, then DefaultOrder without duplicates.
func (c *Capturer) Order() []Backend {
	order := make([]Backend, 0, len(DefaultOrder)+1)
	if b, ok := c.Preferred(); ok {
		order = append(order, b)
	}
	for _, b := range DefaultOrder {
		if len(order) > 0 && order[0] == b {
			continue
		}
		order = append(order, b)
	}
	return order
}

// Capture returns PNG bytes from the first backend that succeeds, and records
// that backend as preferred. When every candidate fails, the error of the last
// one attempted is returned as the cause of a CodeCaptureFailed error; earlier
// errors are only logged.
func (c *Capturer) Capture(ctx context.Context) ([]byte, Backend, error) {
	var (
		lastErr   error
		attempted []string
	)

	for _, b := range c.Order() {
		s, ok := c.strategies[b]
		if !ok {
			continue
		}
		attempted = append(attempted, b.String())

		start := time.Now()
		data, err := c.attempt(ctx, s)
		if err == nil {
			if old := c.preferred.Swap(b); old != b {
				slog.Info("preferred capture backend changed", "from", old, "to", b)
			}
			slog.Debug("screen captured", "backend", b, "bytes", len(data), "elapsed", time.Since(start))
			return data, b, nil
		}

		slog.Debug("capture backend failed", "backend", b, "elapsed", time.Since(start), "error", err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		return nil, 0, apperr.Wrap(ErrNoBackends, apperr.CodeCaptureFailed, "screen capture failed")
	}
	return nil, 0, apperr.Wrap(lastErr, apperr.CodeCaptureFailed, "screen capture failed").
		WithMetadata("attempted", strings.Join(attempted, ","))
}

// attempt runs one strategy. Time-boxed backends run on a throwaway goroutine
// that reports over a one-slot channel; on deadline its context is cancelled
// and its result, if it ever arrives, is dropped.
func (c *Capturer) attempt(ctx context.Context, s Strategy) ([]byte, error) {
	b := s.Backend()
	if !b.timeBoxed() {
		return s.Capture(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := s.Capture(ctx)
		ch <- result{data: data, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, c.timeoutError(b)
		}
		return r.data, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, c.timeoutError(b)
		}
		return nil, ctx.Err()
	}
}

func (c *Capturer) timeoutError(b Backend) error {
	return apperr.Wrapf(ErrTimeout, apperr.CodeTimeout, "%s screenshot timed out (over %s)", b, c.timeout).
		WithMetadata("backend", b.String())
}
