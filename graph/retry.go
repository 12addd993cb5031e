package graph

import (
	"context"
	"fmt"
	"time"
)

// BackoffStrategy selects how the wait between attempts grows.
type BackoffStrategy int

const (
	FixedBackoff BackoffStrategy = iota
	ExponentialBackoff
	LinearBackoff
)

// RetryPolicy configures retries of a single node.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	Backoff BackoffStrategy

	// Delay is the base wait before the first retry.
	Delay time.Duration

	// MaxDelay caps the computed wait, zero means no cap.
	MaxDelay time.Duration

	// Retryable reports whether err should be retried. Nil retries everything.
	Retryable func(err error) bool
}

// delay returns the wait before retry number attempt (zero based).
func (p *RetryPolicy) delay(attempt int) time.Duration {
	var d time.Duration
	switch p.Backoff {
	case ExponentialBackoff:
		d = p.Delay * time.Duration(1<<uint(attempt))
	case LinearBackoff:
		d = p.Delay * time.Duration(attempt+1)
	default:
		d = p.Delay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// WithRetry wraps fn so failures are retried according to policy.
// A nil policy returns fn unchanged.
func WithRetry[S any](name string, fn func(context.Context, S) (S, error), policy *RetryPolicy) func(context.Context, S) (S, error) {
	if policy == nil || policy.MaxRetries <= 0 {
		return fn
	}

	return func(ctx context.Context, state S) (S, error) {
		var lastErr error
		for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
			result, err := fn(ctx, state)
			if err == nil {
				return result, nil
			}
			lastErr = err

			if policy.Retryable != nil && !policy.Retryable(err) {
				return state, err
			}
			if attempt == policy.MaxRetries {
				break
			}

			if d := policy.delay(attempt); d > 0 {
				timer := time.NewTimer(d)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return state, fmt.Errorf("retry of %s cancelled: %w", name, ctx.Err())
				}
			} else if err := ctx.Err(); err != nil {
				return state, fmt.Errorf("retry of %s cancelled: %w", name, err)
			}
		}
		return state, fmt.Errorf("max retries (%d) exceeded for %s: %w", policy.MaxRetries, name, lastErr)
	}
}

// AddNodeWithRetry adds a node whose function is retried according to policy.
func (g *StateGraph[S]) AddNodeWithRetry(name, description string, fn func(context.Context, S) (S, error), policy *RetryPolicy) {
	g.AddNode(name, description, WithRetry(name, fn, policy))
}
