package event

import (
	"context"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&shared.OutboxEntry{}))
	return db
}

func newEntry(t *testing.T) *shared.OutboxEntry {
	t.Helper()
	return shared.NewOutboxEntry(newTestEvent("TestEvent"), []byte(`{"test":true}`))
}

func TestGormOutboxRepository_SaveAndFindPending(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	first := newEntry(t)
	first.CreatedAt = time.Now().Add(-time.Minute)
	second := newEntry(t)
	require.NoError(t, repo.Save(ctx, first, second))
	require.NoError(t, repo.Save(ctx))

	entries, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, []byte(`{"test":true}`), entries[0].Payload)

	limited, err := repo.FindPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormOutboxRepository_Save_DuplicateEventID(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	entry := newEntry(t)
	require.NoError(t, repo.Save(ctx, entry))

	dup := *entry
	dup.ID = uuid.New()
	err := repo.Save(ctx, &dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormOutboxRepository_MarkProcessing(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	pending := newEntry(t)
	sent := newEntry(t)
	sent.MarkSent()
	require.NoError(t, repo.Save(ctx, pending, sent))

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID, sent.ID})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, pending.ID, claimed[0].ID)
	assert.Equal(t, shared.OutboxStatusProcessing, claimed[0].Status)

	// Already claimed entries are not handed out twice
	again, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID})
	require.NoError(t, err)
	assert.Empty(t, again)

	none, err := repo.MarkProcessing(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGormOutboxRepository_FindRetryable(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	due := newEntry(t)
	due.MarkFailed("boom")
	notYet := newEntry(t)
	notYet.MarkFailed("boom")
	later := time.Now().Add(time.Hour)
	notYet.NextRetryAt = &later
	require.NoError(t, repo.Save(ctx, due, notYet))

	entries, err := repo.FindRetryable(ctx, time.Now().Add(5*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, due.ID, entries[0].ID)
	assert.Equal(t, "boom", entries[0].LastError)
}

func TestGormOutboxRepository_UpdateAndFindByID(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	entry := newEntry(t)
	require.NoError(t, repo.Save(ctx, entry))
	entry.MarkSent()
	require.NoError(t, repo.Update(ctx, entry))

	found, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, found.Status)
	assert.NotNil(t, found.ProcessedAt)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func deadEntry(t *testing.T, eventType, aggregateType string) *shared.OutboxEntry {
	t.Helper()
	e := shared.NewOutboxEntry(&testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateType, uuid.New()),
	}, []byte(`{}`))
	e.MaxRetries = 1
	e.MarkFailed("gave up")
	require.True(t, e.IsDead())
	return e
}

func TestGormOutboxRepository_FindDeadAndCount(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	for range 3 {
		require.NoError(t, repo.Save(ctx, deadEntry(t, "TestEvent", "TestAggregate")))
	}
	require.NoError(t, repo.Save(ctx, newEntry(t)))

	dead, total, err := repo.FindDead(ctx, shared.OutboxQuery{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, dead, 2)

	rest, total, err := repo.FindDead(ctx, shared.OutboxQuery{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rest, 1)

	counts, err := repo.CountByStatus(ctx, shared.OutboxQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[shared.OutboxStatusDead])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])
}

func TestGormOutboxRepository_FilterByAggregate(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx,
		deadEntry(t, "DeliveryOrderDelivered", "DeliveryOrder"),
		deadEntry(t, "DeliveryOrderDelivered", "DeliveryOrder"),
		deadEntry(t, "DeliveryOrderShipped", "DeliveryOrder"),
		deadEntry(t, "SalesReturnApproved", "SalesReturn"),
	))
	pending := shared.NewOutboxEntry(&testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SalesReturnApproved", "SalesReturn", uuid.New()),
	}, []byte(`{}`))
	require.NoError(t, repo.Save(ctx, pending))

	deliveries, total, err := repo.FindDead(ctx, shared.OutboxQuery{AggregateType: "DeliveryOrder"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, e := range deliveries {
		assert.Equal(t, "DeliveryOrder", e.AggregateType)
	}

	delivered, total, err := repo.FindDead(ctx, shared.OutboxQuery{AggregateType: "DeliveryOrder", EventType: "DeliveryOrderDelivered"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, delivered, 2)

	none, total, err := repo.FindDead(ctx, shared.OutboxQuery{AggregateType: "Invoice"}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)

	counts, err := repo.CountByStatus(ctx, shared.OutboxQuery{AggregateType: "SalesReturn"})
	require.NoError(t, err)
	assert.Equal(t, map[shared.OutboxStatus]int64{
		shared.OutboxStatusDead:    1,
		shared.OutboxStatusPending: 1,
	}, counts)

	byAggregate, err := repo.CountDeadByAggregateType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"DeliveryOrder": 3, "SalesReturn": 1}, byAggregate)
}

func TestGormOutboxRepository_DeleteOlderThan(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	old := newEntry(t)
	old.MarkSent()
	past := time.Now().Add(-10 * 24 * time.Hour)
	old.ProcessedAt = &past
	fresh := newEntry(t)
	fresh.MarkSent()
	pending := newEntry(t)
	require.NoError(t, repo.Save(ctx, old, fresh, pending))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
