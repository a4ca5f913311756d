package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy bounds each attempt against the wrapped service.
type RetryPolicy struct {
	// Timeout is the per-attempt deadline. 0 means DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialBackoff seeds the exponential backoff between attempts.
	// 0 means DefaultInitialBackoff.
	InitialBackoff time.Duration
}

// Default retry tuning.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultInitialBackoff = 250 * time.Millisecond
)

// BoundedService wraps a Service with a per-attempt timeout and a bounded
// exponential-backoff retry budget. When the budget is exhausted it returns
// ErrServiceUnavailable so callers can fall through to deterministic
// behavior instead of blocking the turn.
type BoundedService struct {
	inner  Service
	policy RetryPolicy
	logger *zap.Logger
}

// NewBoundedService wraps inner with policy.
//
// Precondition: inner and logger must not be nil.
func NewBoundedService(inner Service, policy RetryPolicy, logger *zap.Logger) *BoundedService {
	if inner == nil {
		panic("llm.NewBoundedService: inner must not be nil")
	}
	if logger == nil {
		panic("llm.NewBoundedService: logger must not be nil")
	}
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultTimeout
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = DefaultInitialBackoff
	}
	return &BoundedService{inner: inner, policy: policy, logger: logger}
}

// Complete attempts the completion under the retry policy.
//
// Postcondition: returns ErrServiceUnavailable (wrapping the last attempt
// error) once the timeout and retry budget are exhausted; never blocks past
// (MaxRetries+1) × Timeout plus backoff.
func (s *BoundedService) Complete(ctx context.Context, req Request) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.policy.InitialBackoff

	var result string
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.policy.Timeout)
		defer cancel()
		out, err := s.inner.Complete(attemptCtx, req)
		if err != nil {
			s.logger.Warn("llm completion attempt failed", zap.Error(err))
			return err
		}
		result = out
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(s.policy.MaxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", errors.Join(ErrServiceUnavailable, err)
	}
	return result, nil
}

// Stream runs a single streaming attempt under the per-attempt timeout.
// Streams are not retried: a partially delivered stream cannot be replayed
// without duplicating output, so failures surface as ErrServiceUnavailable.
func (s *BoundedService) Stream(ctx context.Context, req Request, fn func(chunk string) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.policy.Timeout)
	defer cancel()
	if err := s.inner.Stream(attemptCtx, req, fn); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.logger.Warn("llm stream failed", zap.Error(err))
		return errors.Join(ErrServiceUnavailable, err)
	}
	return nil
}
