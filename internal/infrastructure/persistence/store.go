package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// aggregate is what the version-checked save needs from a model
type aggregate interface {
	shared.AggregateRoot
	TableName() string
}

// store carries the handle shared by every repository of one unit of work
type store struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

func (s store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// saveAggregate updates the aggregate row if its stored version still equals
// the in-memory one, bumping the version, or inserts it when the row does not
// exist yet. A stale version fails with CONCURRENCY_CONFLICT.
// Associations are not touched; callers persist child rows themselves.
func (s store) saveAggregate(ctx context.Context, agg aggregate) error {
	db := s.conn(ctx)
	old := agg.GetVersion()
	agg.SetVersion(old + 1)

	res := db.Model(agg).
		Where("version = ?", old).
		Select("*").
		Omit(clause.Associations, "id", "created_at").
		Updates(agg)
	if res.Error != nil {
		agg.SetVersion(old)
		return TranslateError(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	agg.SetVersion(old)
	var count int64
	if err := db.Table(agg.TableName()).Where("id = ?", agg.GetID()).Count(&count).Error; err != nil {
		return TranslateError(err)
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict.WithDetails(map[string]any{
			"table":   agg.TableName(),
			"id":      agg.GetID(),
			"version": old,
		})
	}
	if err := db.Omit(clause.Associations).Create(agg).Error; err != nil {
		return TranslateError(err)
	}
	return nil
}

// saveChildren upserts the child rows of an aggregate
func saveChildren[T any](ctx context.Context, db *gorm.DB, children []T) error {
	if len(children) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Save(&children).Error; err != nil {
		return TranslateError(err)
	}
	return nil
}

// publish writes the aggregate's pending domain events to the outbox in the
// current transaction and clears them
func (s store) publish(ctx context.Context, agg shared.AggregateRoot) error {
	return shared.FlushEvents(ctx, s.outbox, s.conn(ctx), agg)
}

// documentSequence allocates gap-free document numbers per prefix and year
type documentSequence struct {
	Prefix    string `gorm:"type:varchar(10);primaryKey"`
	Year      int    `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (documentSequence) TableName() string {
	return "document_sequences"
}

// nextNumber returns PREFIX-YYYY-NNNNN. The sequence row stays locked until
// the transaction ends, so numbers are unique across concurrent writers.
func (s store) nextNumber(ctx context.Context, prefix string) (string, error) {
	db := s.conn(ctx)
	year := time.Now().UTC().Year()

	seq := documentSequence{Prefix: prefix, Year: year}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return "", TranslateError(err)
	}
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ? AND year = ?", prefix, year).
		First(&seq).Error; err != nil {
		return "", TranslateError(err)
	}
	seq.LastValue++
	if err := db.Model(&documentSequence{}).
		Where("prefix = ? AND year = ?", prefix, year).
		Update("last_value", seq.LastValue).Error; err != nil {
		return "", TranslateError(err)
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq.LastValue), nil
}

// forUpdate adds a row lock to the query
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// paginate applies page and page size, defaulting to the first 20 rows
func paginate(db *gorm.DB, page, pageSize int) *gorm.DB {
	f := shared.Filter{Page: page, PageSize: pageSize}.Normalize()
	return db.Offset(f.Offset()).Limit(f.PageSize)
}

// loadByID loads one row by primary key with the named associations
func loadByID[T any](db *gorm.DB, entity string, id uuid.UUID, preloads ...string) (*T, error) {
	var out T
	for _, p := range preloads {
		db = db.Preload(p)
	}
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		return nil, notFound(err, entity, id)
	}
	return &out, nil
}
