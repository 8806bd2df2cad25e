package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryOutboxRepo keeps entries in a map; only what OutboxService calls is real
type memoryOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
	failAll bool
}

func newMemoryOutboxRepo() *memoryOutboxRepo {
	return &memoryOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *memoryOutboxRepo) add(status shared.OutboxStatus) *shared.OutboxEntry {
	now := time.Now()
	e := &shared.OutboxEntry{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     "DeliveryOrderDelivered",
		AggregateID:   uuid.New(),
		AggregateType: "DeliveryOrder",
		Status:        status,
		MaxRetries:    shared.DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == shared.OutboxStatusDead {
		e.RetryCount = shared.DefaultMaxRetries
		e.LastError = "sales order is locked"
	}
	r.entries[e.ID] = e
	return e
}

func (r *memoryOutboxRepo) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *memoryOutboxRepo) FindPending(context.Context, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) FindDead(_ context.Context, q shared.OutboxQuery, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	if r.failAll {
		return nil, 0, errors.New("connection reset")
	}
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead && q.Matches(e) {
			dead = append(dead, e)
		}
	}
	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, int64(len(dead)), nil
	}
	end := min(start+pageSize, len(dead))
	return dead[start:end], int64(len(dead)), nil
}

func (r *memoryOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	return r.entries[id], nil
}

func (r *memoryOutboxRepo) MarkProcessing(context.Context, []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) Update(_ context.Context, entry *shared.OutboxEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *memoryOutboxRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *memoryOutboxRepo) CountByStatus(_ context.Context, q shared.OutboxQuery) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		if q.Matches(e) {
			counts[e.Status]++
		}
	}
	return counts, nil
}

func (r *memoryOutboxRepo) CountDeadByAggregateType(context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, e := range r.entries {
		if e.IsDead() {
			counts[e.AggregateType]++
		}
	}
	return counts, nil
}

var operator = shared.Actor{UserID: uuid.New(), Name: "ops", Capabilities: []string{shared.CapOutboxManage}}

func TestOutboxService_GetDeadLetterEntries(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := NewOutboxService(repo, zap.NewNop())
	for range 5 {
		repo.add(shared.OutboxStatusDead)
	}
	repo.add(shared.OutboxStatusPending)

	result, err := service.GetDeadLetterEntries(context.Background(), OutboxFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, result.Total)
	assert.Equal(t, 3, result.TotalPages)
	assert.Len(t, result.Items, 2)
	for _, entry := range result.Items {
		assert.Equal(t, "DEAD", entry.Status)
		assert.NotEmpty(t, entry.LastError)
	}

	repo.failAll = true
	_, err = service.GetDeadLetterEntries(context.Background(), OutboxFilter{})
	assert.ErrorContains(t, err, "connection reset")
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := NewOutboxService(repo, zap.NewNop())
	ctx := context.Background()
	dead := repo.add(shared.OutboxStatusDead)

	t.Run("requires the outbox capability", func(t *testing.T) {
		_, err := service.RetryDeadEntry(ctx, shared.Actor{}, dead.ID)
		assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(err))
	})

	result, err := service.RetryDeadEntry(ctx, operator, dead.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", result.Status)
	assert.Equal(t, 0, result.RetryCount)
	assert.Empty(t, result.LastError)

	t.Run("unknown entry", func(t *testing.T) {
		_, err := service.RetryDeadEntry(ctx, operator, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("entry that is not dead", func(t *testing.T) {
		_, err := service.RetryDeadEntry(ctx, operator, dead.ID)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
	})
}

func TestOutboxService_GetStats(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := NewOutboxService(repo, zap.NewNop())
	for _, status := range []shared.OutboxStatus{
		shared.OutboxStatusPending,
		shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	} {
		repo.add(status)
	}

	stats, err := service.GetStats(context.Background(), OutboxScope{})
	require.NoError(t, err)
	assert.Equal(t, &OutboxStatsDTO{
		Pending: 2, Processing: 1, Sent: 3, Failed: 1, Dead: 1, Total: 8,
		DeadByAggregate: map[string]int64{"DeliveryOrder": 1},
	}, stats)
}

func TestOutboxService_RetryAllDeadEntries(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := NewOutboxService(repo, zap.NewNop())
	for range 3 {
		repo.add(shared.OutboxStatusDead)
	}
	pending := repo.add(shared.OutboxStatusPending)

	count, err := service.RetryAllDeadEntries(context.Background(), operator, OutboxScope{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	for _, entry := range repo.entries {
		assert.Equal(t, shared.OutboxStatusPending, entry.Status)
	}
	assert.Equal(t, 0, repo.entries[pending.ID].RetryCount)
}

func TestOutboxService_ScopedByAggregate(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := NewOutboxService(repo, zap.NewNop())
	ctx := context.Background()
	for range 2 {
		repo.add(shared.OutboxStatusDead)
	}
	returned := repo.add(shared.OutboxStatusDead)
	returned.AggregateType = "SalesReturn"
	returned.EventType = "SalesReturnApproved"
	repo.add(shared.OutboxStatusSent)

	deliveries := OutboxScope{AggregateType: "DeliveryOrder"}
	returns := OutboxScope{AggregateType: "SalesReturn"}

	t.Run("dead letters", func(t *testing.T) {
		page, err := service.GetDeadLetterEntries(ctx, OutboxFilter{OutboxScope: returns})
		require.NoError(t, err)
		assert.EqualValues(t, 1, page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, returned.ID, page.Items[0].ID)

		page, err = service.GetDeadLetterEntries(ctx, OutboxFilter{OutboxScope: OutboxScope{EventType: "DeliveryOrderDelivered"}})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := service.GetStats(ctx, deliveries)
		require.NoError(t, err)
		assert.Equal(t, &OutboxStatsDTO{Sent: 1, Dead: 2, Total: 3}, stats)

		all, err := service.GetStats(ctx, OutboxScope{})
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"DeliveryOrder": 2, "SalesReturn": 1}, all.DeadByAggregate)
	})

	t.Run("retry all", func(t *testing.T) {
		count, err := service.RetryAllDeadEntries(ctx, operator, returns)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
		assert.Equal(t, shared.OutboxStatusPending, repo.entries[returned.ID].Status)

		stats, err := service.GetStats(ctx, deliveries)
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.Dead)
	})
}
