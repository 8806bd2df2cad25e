package persistence

import (
	"context"

	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPickingListRepository implements fulfillment.PickingListRepository
type GormPickingListRepository struct {
	store
}

// NewGormPickingListRepository creates a picking list repository on db
func NewGormPickingListRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormPickingListRepository {
	return &GormPickingListRepository{store{db: db, outbox: outbox}}
}

// FindByID finds a picking list with its items
func (r *GormPickingListRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.PickingList, error) {
	return loadByID[fulfillment.PickingList](r.conn(ctx), "picking list", id, "Items")
}

// FindByIDForUpdate finds a picking list with its items and locks it
func (r *GormPickingListRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fulfillment.PickingList, error) {
	return loadByID[fulfillment.PickingList](forUpdate(r.conn(ctx)), "picking list", id, "Items")
}

// FindByItemIDForUpdate locks the list owning the given item
func (r *GormPickingListRepository) FindByItemIDForUpdate(ctx context.Context, itemID uuid.UUID) (*fulfillment.PickingList, error) {
	var item fulfillment.PickingListItem
	if err := r.conn(ctx).Select("picking_list_id").First(&item, "id = ?", itemID).Error; err != nil {
		return nil, notFound(err, "picking list item", itemID)
	}
	return r.FindByIDForUpdate(ctx, item.PickingListID)
}

// FindActiveBySource returns the most recent non-cancelled list of a source
func (r *GormPickingListRepository) FindActiveBySource(ctx context.Context, sourceType fulfillment.SourceType, sourceID uuid.UUID) (*fulfillment.PickingList, error) {
	var list fulfillment.PickingList
	if err := r.conn(ctx).
		Preload("Items").
		Where("source_type = ? AND source_id = ? AND status <> ?", sourceType, sourceID, fulfillment.PickingStatusCancelled).
		Order("created_at DESC").
		First(&list).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &list, nil
}

// Save persists the list, its items and its events
func (r *GormPickingListRepository) Save(ctx context.Context, list *fulfillment.PickingList) error {
	if err := r.saveAggregate(ctx, list); err != nil {
		return err
	}
	if err := saveChildren(ctx, r.db, list.Items); err != nil {
		return err
	}
	return r.publish(ctx, list)
}

// NextNumber allocates the next picking list number
func (r *GormPickingListRepository) NextNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, prefixPickingList)
}

// GormDeliveryOrderRepository implements fulfillment.DeliveryOrderRepository
type GormDeliveryOrderRepository struct {
	store
}

// NewGormDeliveryOrderRepository creates a delivery order repository on db
func NewGormDeliveryOrderRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormDeliveryOrderRepository {
	return &GormDeliveryOrderRepository{store{db: db, outbox: outbox}}
}

// FindByID finds a delivery order with its items
func (r *GormDeliveryOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.DeliveryOrder, error) {
	return loadByID[fulfillment.DeliveryOrder](r.conn(ctx), "delivery order", id, "Items")
}

// FindByIDForUpdate finds a delivery order with its items and locks it
func (r *GormDeliveryOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fulfillment.DeliveryOrder, error) {
	return loadByID[fulfillment.DeliveryOrder](forUpdate(r.conn(ctx)), "delivery order", id, "Items")
}

// FindBySource returns every delivery order of a source document, oldest first
func (r *GormDeliveryOrderRepository) FindBySource(ctx context.Context, sourceType fulfillment.SourceType, sourceID uuid.UUID) ([]fulfillment.DeliveryOrder, error) {
	var orders []fulfillment.DeliveryOrder
	if err := r.conn(ctx).
		Preload("Items").
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, TranslateError(err)
	}
	return orders, nil
}

// Save persists the delivery order, its items and its events
func (r *GormDeliveryOrderRepository) Save(ctx context.Context, order *fulfillment.DeliveryOrder) error {
	if err := r.saveAggregate(ctx, order); err != nil {
		return err
	}
	if err := saveChildren(ctx, r.db, order.Items); err != nil {
		return err
	}
	return r.publish(ctx, order)
}

// NextNumber allocates the next delivery order number
func (r *GormDeliveryOrderRepository) NextNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, prefixDeliveryOrder)
}
