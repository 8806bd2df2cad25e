package uow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedScope struct {
	errs  []error
	calls int
}

func (s *scriptedScope) Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	s.calls++
	if len(s.errs) == 0 {
		return fn(ctx, nil)
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func (s *scriptedScope) Reader() Repositories { return nil }

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestRetryingScope_Execute(t *testing.T) {
	noop := func(context.Context, Repositories) error { return nil }

	t.Run("retries contended transactions until they succeed", func(t *testing.T) {
		inner := &scriptedScope{errs: []error{shared.ErrContended, shared.ErrConcurrencyConflict}}
		retried := 0
		scope := WithRetry(inner, fastPolicy(3), nil, WithRetryObserver(func(context.Context, error) { retried++ }))

		require.NoError(t, scope.Execute(context.Background(), noop))
		assert.Equal(t, 3, inner.calls)
		assert.Equal(t, 2, retried)
	})

	t.Run("returns CONTENDED once retries are exhausted", func(t *testing.T) {
		inner := &scriptedScope{errs: []error{
			shared.ErrConcurrencyConflict, shared.ErrConcurrencyConflict, shared.ErrConcurrencyConflict,
		}}
		scope := WithRetry(inner, fastPolicy(2), nil)

		err := scope.Execute(context.Background(), noop)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrContended))
		assert.Equal(t, shared.CodeContended, shared.ErrorCode(err))
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		inner := &scriptedScope{errs: []error{shared.ErrInsufficientStock}}
		scope := WithRetry(inner, fastPolicy(5), nil)

		err := scope.Execute(context.Background(), noop)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("zero retries runs once", func(t *testing.T) {
		inner := &scriptedScope{errs: []error{shared.ErrContended}}
		scope := WithRetry(inner, fastPolicy(0), nil)

		err := scope.Execute(context.Background(), noop)
		assert.ErrorIs(t, err, shared.ErrContended)
		assert.Equal(t, 1, inner.calls)
	})
}
