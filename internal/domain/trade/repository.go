package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationFilter selects quotations for listing
type QuotationFilter struct {
	Status     QuotationStatus
	CustomerID *uuid.UUID
	Page       int
	PageSize   int
}

// QuotationRepository defines persistence for quotations
type QuotationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Quotation, error)
	List(ctx context.Context, filter QuotationFilter) ([]Quotation, int64, error)
	Save(ctx context.Context, quotation *Quotation) error
	NextNumber(ctx context.Context) (string, error)
}

// SalesOrderFilter selects sales orders for listing
type SalesOrderFilter struct {
	Status     OrderStatus
	CustomerID *uuid.UUID
	Page       int
	PageSize   int
}

// SalesOrderRepository defines persistence for sales orders
type SalesOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*SalesOrder, error)
	List(ctx context.Context, filter SalesOrderFilter) ([]SalesOrder, int64, error)
	Save(ctx context.Context, order *SalesOrder) error
	NextNumber(ctx context.Context) (string, error)
}

// PurchaseOrderRepository defines persistence for purchase orders
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	Save(ctx context.Context, order *PurchaseOrder) error
	NextNumber(ctx context.Context) (string, error)
}

// GoodsReceiptRepository defines persistence for goods receipts
type GoodsReceiptRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*GoodsReceipt, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*GoodsReceipt, error)
	CountByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) (int64, error)
	Save(ctx context.Context, receipt *GoodsReceipt) error
	NextNumber(ctx context.Context) (string, error)
}

// SalesReturnRepository defines persistence for sales returns
type SalesReturnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SalesReturn, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SalesReturn, error)
	// ReturnedQuantities sums, per sales order item, the quantity on returns
	// of the order that were not rejected
	ReturnedQuantities(ctx context.Context, salesOrderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	Save(ctx context.Context, salesReturn *SalesReturn) error
	NextNumber(ctx context.Context) (string, error)
}
