package uow

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// RetryPolicy controls how contended transactions are retried
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the policy used when nothing is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// RetryingScope wraps a TransactionScope and re-runs transactions that
// failed with CONTENDED or CONCURRENCY_CONFLICT. Every other error is
// returned on the first attempt.
type RetryingScope struct {
	inner   TransactionScope
	policy  RetryPolicy
	logger  *zap.Logger
	onRetry func(ctx context.Context, err error)
}

// RetryOption configures a RetryingScope
type RetryOption func(*RetryingScope)

// WithRetryObserver registers a callback invoked before every retry
func WithRetryObserver(fn func(ctx context.Context, err error)) RetryOption {
	return func(s *RetryingScope) {
		s.onRetry = fn
	}
}

// WithRetry wraps scope with retry on contention
func WithRetry(scope TransactionScope, policy RetryPolicy, log *zap.Logger, opts ...RetryOption) *RetryingScope {
	if log == nil {
		log = zap.NewNop()
	}
	s := &RetryingScope{inner: scope, policy: policy, logger: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs fn, retrying with exponential backoff while it is contended.
// Once the retries are exhausted the caller receives CONTENDED.
func (s *RetryingScope) Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := s.inner.Execute(ctx, fn)
		if err == nil {
			return nil
		}
		if !shared.IsContended(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.L(ctx).Warn("transaction contended, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if s.onRetry != nil {
			s.onRetry(ctx, err)
		}
	}

	err := backoff.RetryNotify(operation, s.backOff(ctx), notify)
	if err != nil && shared.IsContended(err) && shared.ErrorCode(err) != shared.CodeContended {
		return fmt.Errorf("%w: %s", shared.ErrContended, err.Error())
	}
	return err
}

// Reader returns the wrapped scope's non-transactional repositories
func (s *RetryingScope) Reader() Repositories {
	return s.inner.Reader()
}

func (s *RetryingScope) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.policy.InitialInterval
	if b.InitialInterval <= 0 {
		b.InitialInterval = DefaultRetryPolicy().InitialInterval
	}
	if s.policy.MaxInterval > 0 {
		b.MaxInterval = s.policy.MaxInterval
	}
	b.MaxElapsedTime = 0
	retries := s.policy.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

var _ TransactionScope = (*RetryingScope)(nil)
