package persistence

import (
	"context"
	"errors"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRecordRepository implements inventory.StockRecordRepository
type GormStockRecordRepository struct {
	store
}

// NewGormStockRecordRepository creates a stock record repository on db
func NewGormStockRecordRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormStockRecordRepository {
	return &GormStockRecordRepository{store{db: db, outbox: outbox}}
}

// FindByProductAndWarehouse returns the record without locking it
func (r *GormStockRecordRepository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	var rec inventory.StockRecord
	if err := r.conn(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&rec).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &rec, nil
}

// FindForUpdate returns the record holding a row lock
func (r *GormStockRecordRepository) FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	var rec inventory.StockRecord
	if err := forUpdate(r.conn(ctx)).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&rec).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &rec, nil
}

// GetOrCreateForUpdate inserts an empty record if none exists, then locks it.
// Two writers racing on a new pair both end up locking the same row.
func (r *GormStockRecordRepository) GetOrCreateForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	fresh, err := inventory.NewStockRecord(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if err := r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error; err != nil {
		return nil, TranslateError(err)
	}
	return r.FindForUpdate(ctx, productID, warehouseID)
}

// List returns records matching the filter and the total count
func (r *GormStockRecordRepository) List(ctx context.Context, filter inventory.StockFilter) ([]inventory.StockRecord, int64, error) {
	q := r.conn(ctx).Model(&inventory.StockRecord{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if !filter.IncludeHidden {
		q = q.Where("hidden = ?", false)
	}
	if filter.OnlyAvailable {
		q = q.Where("available_quantity > 0")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var records []inventory.StockRecord
	if err := paginate(q, filter.Page, filter.PageSize).
		Order("product_id, warehouse_id").
		Find(&records).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return records, total, nil
}

// Save persists the record version-checked and appends its pending movements
func (r *GormStockRecordRepository) Save(ctx context.Context, record *inventory.StockRecord) error {
	if err := r.saveAggregate(ctx, record); err != nil {
		return err
	}
	if pending := record.PendingMovements(); len(pending) > 0 {
		if err := r.conn(ctx).Create(pending).Error; err != nil {
			return TranslateError(err)
		}
		record.ClearPendingMovements()
	}
	return r.publish(ctx, record)
}

// GormStockMovementRepository reads the stock ledger
type GormStockMovementRepository struct {
	store
}

// NewGormStockMovementRepository creates a stock movement repository on db
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{store{db: db}}
}

// FindByRecord returns every movement of a product-warehouse pair in sequence order
func (r *GormStockMovementRepository) FindByRecord(ctx context.Context, productID, warehouseID uuid.UUID) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.conn(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Order("sequence ASC").
		Find(&movements).Error; err != nil {
		return nil, TranslateError(err)
	}
	return movements, nil
}

// List returns movements matching the filter, newest first
func (r *GormStockMovementRepository) List(ctx context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	q := r.filtered(ctx, filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var movements []inventory.StockMovement
	if err := paginate(q, filter.Page, filter.PageSize).
		Order("created_at DESC, sequence DESC").
		Find(&movements).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return movements, total, nil
}

// Iterate streams movements in ledger order, in pages of iterateBatchSize
func (r *GormStockMovementRepository) Iterate(ctx context.Context, filter inventory.MovementFilter, fn func(*inventory.StockMovement) error) error {
	for offset := 0; ; offset += iterateBatchSize {
		var batch []inventory.StockMovement
		if err := r.filtered(ctx, filter).
			Order("created_at ASC, product_id, warehouse_id, sequence ASC").
			Offset(offset).
			Limit(iterateBatchSize).
			Find(&batch).Error; err != nil {
			return TranslateError(err)
		}
		for i := range batch {
			if err := fn(&batch[i]); err != nil {
				return err
			}
		}
		if len(batch) < iterateBatchSize {
			return nil
		}
	}
}

const iterateBatchSize = 500

func (r *GormStockMovementRepository) filtered(ctx context.Context, filter inventory.MovementFilter) *gorm.DB {
	q := r.conn(ctx).Model(&inventory.StockMovement{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.ReferenceType != "" {
		q = q.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		q = q.Where("reference_id = ?", *filter.ReferenceID)
	}
	if len(filter.Types) > 0 {
		q = q.Where("type IN ?", filter.Types)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	return q
}

// GormReservationRepository implements inventory.ReservationRepository
type GormReservationRepository struct {
	store
}

// NewGormReservationRepository creates a reservation repository on db
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{store{db: db}}
}

// FindByKey finds the reservation of a product held for a document
func (r *GormReservationRepository) FindByKey(ctx context.Context, ref inventory.Reference, productID uuid.UUID) (*inventory.Reservation, error) {
	var res inventory.Reservation
	if err := r.conn(ctx).
		Where("reference_type = ? AND reference_id = ? AND product_id = ?", ref.Type, ref.ID, productID).
		First(&res).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &res, nil
}

// FindByReference finds every reservation held for a document
func (r *GormReservationRepository) FindByReference(ctx context.Context, ref inventory.Reference) ([]inventory.Reservation, error) {
	var list []inventory.Reservation
	if err := r.conn(ctx).
		Where("reference_type = ? AND reference_id = ?", ref.Type, ref.ID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, TranslateError(err)
	}
	return list, nil
}

// Save creates or updates a reservation
func (r *GormReservationRepository) Save(ctx context.Context, reservation *inventory.Reservation) error {
	return r.saveAggregate(ctx, reservation)
}

// GormWarehouseTransferRepository implements inventory.WarehouseTransferRepository
type GormWarehouseTransferRepository struct {
	store
}

// NewGormWarehouseTransferRepository creates a transfer repository on db
func NewGormWarehouseTransferRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormWarehouseTransferRepository {
	return &GormWarehouseTransferRepository{store{db: db, outbox: outbox}}
}

// FindByID finds a transfer
func (r *GormWarehouseTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.WarehouseTransfer, error) {
	return r.find(r.conn(ctx), id)
}

// FindByIDForUpdate finds a transfer and locks it
func (r *GormWarehouseTransferRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.WarehouseTransfer, error) {
	return r.find(forUpdate(r.conn(ctx)), id)
}

func (r *GormWarehouseTransferRepository) find(db *gorm.DB, id uuid.UUID) (*inventory.WarehouseTransfer, error) {
	var t inventory.WarehouseTransfer
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "warehouse transfer", id)
	}
	return &t, nil
}

// List returns transfers matching the filter, newest first
func (r *GormWarehouseTransferRepository) List(ctx context.Context, filter inventory.TransferFilter) ([]inventory.WarehouseTransfer, int64, error) {
	q := r.conn(ctx).Model(&inventory.WarehouseTransfer{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		q = q.Where("from_warehouse_id = ? OR to_warehouse_id = ?", *filter.WarehouseID, *filter.WarehouseID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var list []inventory.WarehouseTransfer
	if err := paginate(q, filter.Page, filter.PageSize).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return list, total, nil
}

// Save persists the transfer and its events
func (r *GormWarehouseTransferRepository) Save(ctx context.Context, transfer *inventory.WarehouseTransfer) error {
	if err := r.saveAggregate(ctx, transfer); err != nil {
		return err
	}
	return r.publish(ctx, transfer)
}

// IsNotFound reports whether a repository lookup found nothing
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
