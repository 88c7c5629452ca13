package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"pte/pkg/logging"
)

// Strategy selects how the delay between attempts grows.
type Strategy string

const (
	// StrategyFixed waits the base delay between every attempt.
	StrategyFixed Strategy = "fixed"
	// StrategyExponential doubles the delay after each attempt.
	StrategyExponential Strategy = "exponential"
	// StrategyLinear grows the delay by the base delay each attempt.
	StrategyLinear Strategy = "linear"
	// StrategyRandom waits a uniform random duration bounded by the
	// exponential schedule.
	StrategyRandom Strategy = "random"
	// StrategyFibonacci scales the base delay by the Fibonacci sequence.
	StrategyFibonacci Strategy = "fibonacci"
)

// ErrTimeout is returned when the overall retry deadline is exceeded.
var ErrTimeout = errors.New("retry timeout exceeded")

const (
	defaultMaxAttempts  = 3
	defaultBaseDelay    = time.Second
	defaultMaxDelay     = 60 * time.Second
	defaultJitterFactor = 0.1
)

// Options holds the tunables of one retry loop.
type Options struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Strategy     Strategy
	JitterFactor float64
	Timeout      time.Duration
	RetryIf      func(error) bool
	Logger       *logging.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithMaxAttempts sets how many times fn runs before giving up.
func WithMaxAttempts(n int) Option {
	return func(o *Options) { o.MaxAttempts = n }
}

// WithBaseDelay sets the base delay fed into the strategy.
func WithBaseDelay(d time.Duration) Option {
	return func(o *Options) { o.BaseDelay = d }
}

// WithMaxDelay caps the computed delay.
func WithMaxDelay(d time.Duration) Option {
	return func(o *Options) { o.MaxDelay = d }
}

// WithStrategy selects the backoff schedule.
func WithStrategy(s Strategy) Option {
	return func(o *Options) { o.Strategy = s }
}

// WithJitterFactor sets the relative jitter applied to each delay.
func WithJitterFactor(f float64) Option {
	return func(o *Options) { o.JitterFactor = f }
}

// WithTimeout bounds the whole retry loop. The deadline is checked before
// every attempt; when exceeded the loop stops with ErrTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithRetryIf restricts which errors are retried. Errors rejected by the
// predicate are returned immediately.
func WithRetryIf(pred func(error) bool) Option {
	return func(o *Options) { o.RetryIf = pred }
}

// WithLogger routes attempt logging to a specific logger instead of the
// process default.
func WithLogger(l *logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func buildOptions(opts []Option) Options {
	o := Options{
		MaxAttempts:  defaultMaxAttempts,
		BaseDelay:    defaultBaseDelay,
		MaxDelay:     defaultMaxDelay,
		Strategy:     StrategyFixed,
		JitterFactor: defaultJitterFactor,
		RetryIf:      func(error) bool { return true },
		Logger:       logging.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	return o
}

// Delay computes the wait before the next attempt. attempt is 1-based.
func (o Options) Delay(attempt int) time.Duration {
	var d time.Duration
	switch o.Strategy {
	case StrategyExponential:
		d = time.Duration(float64(o.BaseDelay) * math.Pow(2, float64(attempt-1)))
	case StrategyLinear:
		d = o.BaseDelay * time.Duration(attempt)
	case StrategyRandom:
		upper := float64(o.BaseDelay) * math.Pow(2, float64(attempt-1))
		d = time.Duration(rand.Float64() * upper)
	case StrategyFibonacci:
		d = o.BaseDelay * time.Duration(fibonacci(attempt))
	default:
		d = o.BaseDelay
	}

	if o.JitterFactor > 0 {
		jitter := (rand.Float64()*2 - 1) * o.JitterFactor * float64(d)
		d += time.Duration(jitter)
	}

	if d < 0 {
		d = 0
	}
	if o.MaxDelay > 0 && d > o.MaxDelay {
		d = o.MaxDelay
	}
	return d
}

func fibonacci(n int) int64 {
	if n <= 2 {
		return 1
	}
	a, b := int64(1), int64(1)
	for i := 3; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}

// Do runs fn until it succeeds, the retryable-error predicate rejects its
// error, attempts are exhausted, the overall timeout passes, or ctx is
// cancelled. The last error is returned wrapped with the attempt count.
func Do(ctx context.Context, fn func(context.Context) error, opts ...Option) error {
	o := buildOptions(opts)

	var deadline time.Time
	if o.Timeout > 0 {
		deadline = time.Now().Add(o.Timeout)
	}

	var lastErr error
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", ErrTimeout, o.Timeout)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !o.RetryIf(lastErr) {
			return lastErr
		}
		if attempt == o.MaxAttempts {
			break
		}

		delay := o.Delay(attempt)
		o.Logger.Warn("attempt %d/%d failed: %v, retrying in %s",
			attempt, o.MaxAttempts, lastErr, delay)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", o.MaxAttempts, lastErr)
}

// DoValue runs fn until the until predicate accepts its result. A result
// that never satisfies the predicate is not an error: after the final
// attempt the last result is returned as is. Errors from fn are retried the
// same way Do retries them.
func DoValue[T any](ctx context.Context, fn func(context.Context) (T, error), until func(T) bool, opts ...Option) (T, error) {
	o := buildOptions(opts)

	var deadline time.Time
	if o.Timeout > 0 {
		deadline = time.Now().Add(o.Timeout)
	}

	var last T
	var lastErr error
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return last, fmt.Errorf("%w after %s", ErrTimeout, o.Timeout)
		}
		if err := ctx.Err(); err != nil {
			return last, err
		}

		last, lastErr = fn(ctx)
		if lastErr == nil {
			if until == nil || until(last) {
				return last, nil
			}
		} else if !o.RetryIf(lastErr) {
			return last, lastErr
		}
		if attempt == o.MaxAttempts {
			break
		}

		delay := o.Delay(attempt)
		if lastErr != nil {
			o.Logger.Warn("attempt %d/%d failed: %v, retrying in %s",
				attempt, o.MaxAttempts, lastErr, delay)
		} else {
			o.Logger.Debug("attempt %d/%d: condition not met, retrying in %s",
				attempt, o.MaxAttempts, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return last, err
		}
	}

	if lastErr != nil {
		return last, fmt.Errorf("all %d attempts failed: %w", o.MaxAttempts, lastErr)
	}
	// Condition never held; surface the last result without error.
	return last, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OnError retries fn on any error with default settings.
func OnError(ctx context.Context, fn func(context.Context) error, opts ...Option) error {
	return Do(ctx, fn, opts...)
}

// UntilTrue retries fn until it returns true.
func UntilTrue(ctx context.Context, fn func(context.Context) (bool, error), opts ...Option) (bool, error) {
	return DoValue(ctx, fn, func(v bool) bool { return v }, opts...)
}

// UntilNotNil retries fn until it returns a non-nil result.
func UntilNotNil(ctx context.Context, fn func(context.Context) (any, error), opts ...Option) (any, error) {
	return DoValue(ctx, fn, func(v any) bool { return v != nil }, opts...)
}

// UntilNotEmpty retries fn until its result is non-empty (strings, slices
// and maps count their elements; nil is empty).
func UntilNotEmpty(ctx context.Context, fn func(context.Context) (any, error), opts ...Option) (any, error) {
	return DoValue(ctx, fn, func(v any) bool { return !isEmpty(v) }, opts...)
}
