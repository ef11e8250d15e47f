// Package orchestration runs paid work against interchangeable upstream providers.
package orchestration

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/platform/metrics"
)

// Provider is one entry of a chain. Call must honour ctx.
type Provider[T any] struct {
	Name string
	Call func(ctx context.Context) (T, error)
}

// Attempt records one provider invocation.
type Attempt struct {
	Provider string
	Class    Class
	Err      error
	Duration time.Duration
}

// Result is a successful value tagged with the provider that produced it.
type Result[T any] struct {
	Provider string
	Value    T
	Attempts []Attempt
}

type options struct {
	attemptTimeout time.Duration
	logger         *slog.Logger
	operation      string
}

// Option configures Execute.
type Option func(*options)

// WithAttemptTimeout bounds each provider call. Zero disables the per-attempt bound.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *options) {
		o.attemptTimeout = d
	}
}

// WithLogger sets the logger used for attempt logs.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOperation names the unit of work in logs.
func WithOperation(name string) Option {
	return func(o *options) {
		o.operation = name
	}
}

// Execute tries chain in order and returns the first success.
//
// A retryable failure moves on to the next provider. A fatal failure returns *FatalError without
// trying the rest. If ctx is done the chain stops with an error matching apperrors.ErrCancelled.
// When every provider failed the error is *ExhaustedError.
func Execute[T any](ctx context.Context, chain []Provider[T], opts ...Option) (*Result[T], error) {
	o := options{logger: slog.Default(), operation: "provider_call"}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With(slog.String("operation", o.operation))

	if len(chain) == 0 {
		return nil, &ExhaustedError{Last: ErrEmptyChain}
	}

	attempts := make([]Attempt, 0, len(chain))
	var lastErr error
	for i, p := range chain {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if o.attemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, o.attemptTimeout)
		}
		start := time.Now()
		value, err := p.Call(attemptCtx)
		cancel()
		elapsed := time.Since(start)
		metrics.ProviderLatency.WithLabelValues(p.Name).Observe(elapsed.Seconds())

		if err == nil {
			metrics.ProviderAttempts.WithLabelValues(p.Name, "success").Inc()
			attempts = append(attempts, Attempt{Provider: p.Name, Duration: elapsed})
			if i > 0 {
				logger.Info("Provider fallback succeeded", slog.String("provider", p.Name), slog.Int("attempt", i+1))
			}
			return &Result[T]{Provider: p.Name, Value: value, Attempts: attempts}, nil
		}

		class := Classify(ctx, err)
		metrics.ProviderAttempts.WithLabelValues(p.Name, class.String()).Inc()
		attempts = append(attempts, Attempt{Provider: p.Name, Class: class, Err: err, Duration: elapsed})
		lastErr = err

		switch class {
		case ClassCancelled:
			logger.Info("Provider chain cancelled", slog.String("provider", p.Name))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, cancelled(ctxErr)
			}
			return nil, cancelled(err)
		case ClassFatal:
			logger.Warn("Provider failed with fatal error", slog.String("provider", p.Name), slog.String("error", err.Error()))
			return nil, &FatalError{Provider: p.Name, Err: err}
		default:
			logger.Warn("Provider failed, trying next",
				slog.String("provider", p.Name),
				slog.String("error", err.Error()),
				slog.Duration("elapsed", elapsed))
		}
	}

	logger.Error("Provider chain exhausted", slog.Int("attempts", len(attempts)), slog.String("error", lastErr.Error()))
	return nil, &ExhaustedError{Attempts: attempts, Last: lastErr}
}
