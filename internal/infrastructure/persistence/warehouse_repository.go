package persistence

import (
	"context"
	"strings"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWarehouseRepository implements WarehouseRepository using GORM
type GormWarehouseRepository struct {
	store
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{store{db: db}}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Warehouse, error) {
	var warehouse catalog.Warehouse
	if err := r.conn(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "warehouse", id)
	}
	return &warehouse, nil
}

// FindByCode finds a warehouse by its code
func (r *GormWarehouseRepository) FindByCode(ctx context.Context, code string) (*catalog.Warehouse, error) {
	var warehouse catalog.Warehouse
	if err := r.conn(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&warehouse).Error; err != nil {
		return nil, notFound(err, "warehouse", code)
	}
	return &warehouse, nil
}

// List returns a page of warehouses and the total count
func (r *GormWarehouseRepository) List(ctx context.Context, filter shared.Filter) ([]catalog.Warehouse, int64, error) {
	q := r.conn(ctx).Model(&catalog.Warehouse{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var warehouses []catalog.Warehouse
	q = orderBy(q, filter.OrderBy, filter.OrderDir, WarehouseSortFields, "code")
	if err := paginate(q, filter.Page, filter.PageSize).Find(&warehouses).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return warehouses, total, nil
}

// Save creates or updates a warehouse
func (r *GormWarehouseRepository) Save(ctx context.Context, warehouse *catalog.Warehouse) error {
	return r.saveAggregate(ctx, warehouse)
}
