package event

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository keeps outbox entries in the outbox_entries table. It
// runs on whatever connection it is given, so the publisher can hand it the
// business transaction.
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewGormOutboxRepository creates a new GORM-based outbox repository
func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// matching narrows db to q. Empty fields add no condition.
func matching(db *gorm.DB, q shared.OutboxQuery) *gorm.DB {
	if q.AggregateType != "" {
		db = db.Where("aggregate_type = ?", q.AggregateType)
	}
	if q.EventType != "" {
		db = db.Where("event_type = ?", q.EventType)
	}
	return db
}

func (r *GormOutboxRepository) inStatus(ctx context.Context, status shared.OutboxStatus) *gorm.DB {
	return r.conn(ctx).Model(&shared.OutboxEntry{}).Where("status = ?", status)
}

// Save inserts entries. A second entry for the same event fails with
// ErrAlreadyExists.
func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return persistence.TranslateError(r.conn(ctx).Create(entries).Error)
}

// FindPending returns the oldest PENDING entries first
func (r *GormOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.list(r.inStatus(ctx, shared.OutboxStatusPending).Order("created_at ASC"), limit)
}

// FindRetryable returns FAILED entries due by before, most overdue first
func (r *GormOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	q := r.inStatus(ctx, shared.OutboxStatusFailed).
		Where("next_retry_at <= ?", before).
		Order("next_retry_at ASC")
	return r.list(q, limit)
}

func (r *GormOutboxRepository) list(q *gorm.DB, limit int) ([]*shared.OutboxEntry, error) {
	var entries []*shared.OutboxEntry
	if err := q.Limit(limit).Find(&entries).Error; err != nil {
		return nil, persistence.TranslateError(err)
	}
	return entries, nil
}

// MarkProcessing claims the entries that are still PENDING or FAILED. Rows
// another processor holds are skipped, so each entry goes to one caller.
func (r *GormOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	claimable := []shared.OutboxStatus{shared.OutboxStatusPending, shared.OutboxStatusFailed}

	var claimed []*shared.OutboxEntry
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("id IN ? AND status IN ?", ids, claimable).
			Find(&claimed).Error
		if err != nil || len(claimed) == 0 {
			return err
		}

		now := time.Now()
		won := make([]uuid.UUID, 0, len(claimed))
		for _, e := range claimed {
			e.Status = shared.OutboxStatusProcessing
			e.UpdatedAt = now
			won = append(won, e.ID)
		}
		return tx.Model(&shared.OutboxEntry{}).
			Where("id IN ?", won).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": now}).Error
	})
	if err != nil {
		return nil, persistence.TranslateError(err)
	}
	return claimed, nil
}

// Update writes back an entry after a delivery attempt or an operator retry
func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	entry.UpdatedAt = time.Now()
	return persistence.TranslateError(r.conn(ctx).Save(entry).Error)
}

// DeleteOlderThan purges SENT entries processed before the cutoff
func (r *GormOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.inStatus(ctx, shared.OutboxStatusSent).
		Where("processed_at < ?", before).
		Delete(&shared.OutboxEntry{})
	return result.RowsAffected, persistence.TranslateError(result.Error)
}

// FindDead pages through dead letters matching q, latest failure first
func (r *GormOutboxRepository) FindDead(ctx context.Context, q shared.OutboxQuery, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	dead := matching(r.inStatus(ctx, shared.OutboxStatusDead), q).Session(&gorm.Session{})

	var total int64
	if err := dead.Count(&total).Error; err != nil {
		return nil, 0, persistence.TranslateError(err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	entries, err := r.list(dead.Order("updated_at DESC").Offset((page-1)*pageSize), pageSize)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// FindByID returns ErrNotFound for an unknown id
func (r *GormOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var entry shared.OutboxEntry
	if err := r.conn(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, persistence.TranslateError(err)
	}
	return &entry, nil
}

// CountByStatus counts entries matching q per status
func (r *GormOutboxRepository) CountByStatus(ctx context.Context, q shared.OutboxQuery) (map[shared.OutboxStatus]int64, error) {
	var rows []struct {
		Status shared.OutboxStatus
		Count  int64
	}
	err := matching(r.conn(ctx).Model(&shared.OutboxEntry{}), q).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, persistence.TranslateError(err)
	}

	counts := make(map[shared.OutboxStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountDeadByAggregateType groups dead letters by aggregate type
func (r *GormOutboxRepository) CountDeadByAggregateType(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		AggregateType string
		Count         int64
	}
	err := r.inStatus(ctx, shared.OutboxStatusDead).
		Select("aggregate_type, count(*) AS count").
		Group("aggregate_type").
		Scan(&rows).Error
	if err != nil {
		return nil, persistence.TranslateError(err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.AggregateType] = row.Count
	}
	return counts, nil
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
