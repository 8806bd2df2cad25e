package persistence

import (
	"context"
	"strings"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	store
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{store{db: db}}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.conn(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product", id)
	}
	return &product, nil
}

// FindBySKU finds a product by its SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.conn(ctx).
		Where("sku = ?", strings.ToUpper(sku)).
		First(&product).Error; err != nil {
		return nil, notFound(err, "product", sku)
	}
	return &product, nil
}

// List returns a page of products and the total count
func (r *GormProductRepository) List(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	q := r.conn(ctx).Model(&catalog.Product{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var products []catalog.Product
	q = orderBy(q, filter.OrderBy, filter.OrderDir, ProductSortFields, "sku")
	if err := paginate(q, filter.Page, filter.PageSize).Find(&products).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return products, total, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.saveAggregate(ctx, product)
}
