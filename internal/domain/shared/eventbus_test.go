package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAggregate struct {
	BaseAggregateRoot
}

type savedBatch struct {
	tx     any
	events []DomainEvent
}

type stubSaver struct {
	batches []savedBatch
	err     error
}

func (s *stubSaver) SaveEvents(_ context.Context, tx any, events ...DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, savedBatch{tx: tx, events: events})
	return nil
}

func TestFlushEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("saves pending events in the given transaction", func(t *testing.T) {
		agg := &stubAggregate{BaseAggregateRoot: NewBaseAggregateRoot()}
		first, second := newStubEvent(), newStubEvent()
		agg.AddDomainEvent(first)
		agg.AddDomainEvent(second)
		saver := &stubSaver{}

		require.NoError(t, FlushEvents(ctx, saver, "tx-1", agg))
		require.Len(t, saver.batches, 1)
		assert.Equal(t, "tx-1", saver.batches[0].tx)
		assert.Equal(t, []DomainEvent{first, second}, saver.batches[0].events)
		assert.Empty(t, agg.GetDomainEvents())

		require.NoError(t, FlushEvents(ctx, saver, "tx-1", agg))
		assert.Len(t, saver.batches, 1)
	})

	t.Run("failed save keeps events pending", func(t *testing.T) {
		agg := &stubAggregate{BaseAggregateRoot: NewBaseAggregateRoot()}
		agg.AddDomainEvent(newStubEvent())
		boom := errors.New("event type not registered")

		err := FlushEvents(ctx, &stubSaver{err: boom}, nil, agg)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "Stub")
		assert.Len(t, agg.GetDomainEvents(), 1)
	})

	t.Run("without a saver events are dropped", func(t *testing.T) {
		agg := &stubAggregate{BaseAggregateRoot: NewBaseAggregateRoot()}
		agg.AddDomainEvent(newStubEvent())

		require.NoError(t, FlushEvents(ctx, nil, nil, agg))
		assert.Empty(t, agg.GetDomainEvents())
	})
}
