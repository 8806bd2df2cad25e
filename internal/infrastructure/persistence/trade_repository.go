package persistence

import (
	"context"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Document number prefixes
const (
	prefixQuotation     = "QT"
	prefixSalesOrder    = "SO"
	prefixPurchaseOrder = "PO"
	prefixGoodsReceipt  = "GR"
	prefixSalesReturn   = "SR"
	prefixPickingList   = "PL"
	prefixDeliveryOrder = "DO"
	prefixInvoice       = "INV"
	prefixCreditNote    = "CN"
)

// GormQuotationRepository implements trade.QuotationRepository
type GormQuotationRepository struct {
	store
}

// NewGormQuotationRepository creates a quotation repository on db
func NewGormQuotationRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormQuotationRepository {
	return &GormQuotationRepository{store{db: db, outbox: outbox}}
}

// FindByID finds a quotation with its items
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Quotation, error) {
	return loadByID[trade.Quotation](r.conn(ctx), "quotation", id, "Items")
}

// FindByIDForUpdate finds a quotation with its items and locks it
func (r *GormQuotationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Quotation, error) {
	return loadByID[trade.Quotation](forUpdate(r.conn(ctx)), "quotation", id, "Items")
}

// List returns quotations matching the filter, newest first
func (r *GormQuotationRepository) List(ctx context.Context, filter trade.QuotationFilter) ([]trade.Quotation, int64, error) {
	q := r.conn(ctx).Model(&trade.Quotation{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var list []trade.Quotation
	if err := paginate(q, filter.Page, filter.PageSize).
		Preload("Items").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return list, total, nil
}

// Save persists the quotation, its items and its events
func (r *GormQuotationRepository) Save(ctx context.Context, quotation *trade.Quotation) error {
	if err := r.saveAggregate(ctx, quotation); err != nil {
		return err
	}
	if err := saveChildren(ctx, r.db, quotation.Items); err != nil {
		return err
	}
	return r.publish(ctx, quotation)
}

// NextNumber allocates the next quotation number
func (r *GormQuotationRepository) NextNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, prefixQuotation)
}

// GormSalesOrderRepository implements trade.SalesOrderRepository
type GormSalesOrderRepository struct {
	store
}

// NewGormSalesOrderRepository creates a sales order repository on db
func NewGormSalesOrderRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{store{db: db, outbox: outbox}}
}

// FindByID finds a sales order with its items
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	return loadByID[trade.SalesOrder](r.conn(ctx), "sales order", id, "Items")
}

// FindByIDForUpdate finds a sales order with its items and locks it
func (r *GormSalesOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	return loadByID[trade.SalesOrder](forUpdate(r.conn(ctx)), "sales order", id, "Items")
}

// FindByQuotationID finds the order converted from a quotation
func (r *GormSalesOrderRepository) FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*trade.SalesOrder, error) {
	var order trade.SalesOrder
	if err := r.conn(ctx).
		Preload("Items").
		Where("quotation_id = ?", quotationID).
		First(&order).Error; err != nil {
		return nil, notFound(err, "sales order for quotation", quotationID)
	}
	return &order, nil
}

// List returns sales orders matching the filter, newest first
func (r *GormSalesOrderRepository) List(ctx context.Context, filter trade.SalesOrderFilter) ([]trade.SalesOrder, int64, error) {
	q := r.conn(ctx).Model(&trade.SalesOrder{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var list []trade.SalesOrder
	if err := paginate(q, filter.Page, filter.PageSize).
		Preload("Items").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return list, total, nil
}

// Save persists the order, its items and its events
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	if err := r.saveAggregate(ctx, order); err != nil {
		return err
	}
	if err := saveChildren(ctx, r.db, order.Items); err != nil {
		return err
	}
	return r.publish(ctx, order)
}

// NextNumber allocates the next sales order number
func (r *GormSalesOrderRepository) NextNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, prefixSalesOrder)
}

// GormPurchaseOrderRepository implements trade.PurchaseOrderRepository
type GormPurchaseOrderRepository struct {
	store
}

// NewGormPurchaseOrderRepository creates a purchase order repository on db
func NewGormPurchaseOrderRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{store{db: db, outbox: outbox}}
}

// FindByID finds a purchase order with its items
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return loadByID[trade.PurchaseOrder](r.conn(ctx), "purchase order", id, "Items")
}

// FindByIDForUpdate finds a purchase order with its items and locks it
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return loadByID[trade.PurchaseOrder](forUpdate(r.conn(ctx)), "purchase order", id, "Items")
}

// Save persists the order, its items and its events
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	if err := r.saveAggregate(ctx, order); err != nil {
		return err
	}
	if err := saveChildren(ctx, r.db, order.Items); err != nil {
		return err
	}
	return r.publish(ctx, order)
}

// NextNumber allocates the next purchase order number
func (r *GormPurchaseOrderRepository) NextNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, prefixPurchaseOrder)
}

// GormGoodsReceiptRepository implements trade.GoodsReceiptRepository
type GormGoodsReceiptRepository struct {
	store
}

// NewGormGoodsReceiptRepository creates a goods receipt repository on db
func NewGormGoodsReceiptRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormGoodsReceiptRepository {
	return &GormGoodsReceiptRepository{store{db: db, outbox: outbox}}
}

// FindByID finds a goods receipt with its items
func (r *GormGoodsReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.GoodsReceipt, error) {
	return loadByID[trade.GoodsReceipt](r.conn(ctx), "goods receipt", id, "Items")
}

// FindByIDForUpdate finds a goods receipt with its items and locks it
func (r *GormGoodsReceiptRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.GoodsReceipt, error) {
	return loadByID[trade.GoodsReceipt](forUpdate(r.conn(ctx)), "goods receipt", id, "Items")
}

// CountByPurchaseOrder counts receipts raised against a purchase order
func (r *GormGoodsReceiptRepository) CountByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.conn(ctx).Model(&trade.GoodsReceipt{}).
		Where("purchase_order_id = ?", purchaseOrderID).
		Count(&count).Error; err != nil {
		return 0, TranslateError(err)
	}
	return count, nil
}

// Save persists the receipt, its items and its events
func (r *GormGoodsReceiptRepository) Save(ctx context.Context, receipt *trade.GoodsReceipt) error {
	if err := r.saveAggregate(ctx, receipt); err != nil {
		return err
	}
	if err := saveChildren(ctx, r.db, receipt.Items); err != nil {
		return err
	}
	return r.publish(ctx, receipt)
}

// NextNumber allocates the next goods receipt number
func (r *GormGoodsReceiptRepository) NextNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, prefixGoodsReceipt)
}

// GormSalesReturnRepository implements trade.SalesReturnRepository
type GormSalesReturnRepository struct {
	store
}

// NewGormSalesReturnRepository creates a sales return repository on db
func NewGormSalesReturnRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormSalesReturnRepository {
	return &GormSalesReturnRepository{store{db: db, outbox: outbox}}
}

// FindByID finds a sales return with its items
func (r *GormSalesReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	return loadByID[trade.SalesReturn](r.conn(ctx), "sales return", id, "Items")
}

// FindByIDForUpdate finds a sales return with its items and locks it
func (r *GormSalesReturnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	return loadByID[trade.SalesReturn](forUpdate(r.conn(ctx)), "sales return", id, "Items")
}

type returnedQuantity struct {
	SalesOrderItemID uuid.UUID
	Quantity         decimal.Decimal
}

// ReturnedQuantities sums returned quantities per order line over every
// return of the order that was not rejected
func (r *GormSalesReturnRepository) ReturnedQuantities(ctx context.Context, salesOrderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []returnedQuantity
	if err := r.conn(ctx).
		Table("sales_return_items AS i").
		Select("i.sales_order_item_id, SUM(i.quantity) AS quantity").
		Joins("JOIN sales_returns AS r ON r.id = i.sales_return_id").
		Where("r.sales_order_id = ? AND r.status <> ?", salesOrderID, trade.ReturnStatusRejected).
		Group("i.sales_order_item_id").
		Scan(&rows).Error; err != nil {
		return nil, TranslateError(err)
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.SalesOrderItemID] = row.Quantity
	}
	return out, nil
}

// Save persists the return, its items and its events
func (r *GormSalesReturnRepository) Save(ctx context.Context, salesReturn *trade.SalesReturn) error {
	if err := r.saveAggregate(ctx, salesReturn); err != nil {
		return err
	}
	if err := saveChildren(ctx, r.db, salesReturn.Items); err != nil {
		return err
	}
	return r.publish(ctx, salesReturn)
}

// NextNumber allocates the next sales return number
func (r *GormSalesReturnRepository) NextNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, prefixSalesReturn)
}
