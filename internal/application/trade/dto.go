package trade

import (
	"time"

	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Quotation ====================

// CreateQuotationRequest creates a DRAFT quotation with its lines
type CreateQuotationRequest struct {
	CustomerID   uuid.UUID                  `json:"customer_id" binding:"required"`
	CustomerName string                     `json:"customer_name" binding:"required,max=200"`
	WarehouseID  uuid.UUID                  `json:"warehouse_id" binding:"required"`
	ValidUntil   *time.Time                 `json:"valid_until"`
	Notes        string                     `json:"notes" binding:"max=2000"`
	Items        []CreateQuotationItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateQuotationItemInput is one quotation line
type CreateQuotationItemInput struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required,decimal_positive"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

// ApproveQuotationRequest carries the approver's notes
type ApproveQuotationRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// RejectQuotationRequest carries a reason code from the configured list
type RejectQuotationRequest struct {
	ReasonCode string `json:"reason_code" binding:"required,max=50"`
	Notes      string `json:"notes" binding:"max=2000"`
}

// QuotationItemResponse represents a quotation line
type QuotationItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// QuotationResponse represents a quotation in API responses
type QuotationResponse struct {
	ID                  uuid.UUID               `json:"id"`
	QuotationNumber     string                  `json:"quotation_number"`
	CustomerID          uuid.UUID               `json:"customer_id"`
	CustomerName        string                  `json:"customer_name"`
	WarehouseID         uuid.UUID               `json:"warehouse_id"`
	Status              string                  `json:"status"`
	ValidUntil          time.Time               `json:"valid_until"`
	Notes               string                  `json:"notes,omitempty"`
	SubtotalAmount      decimal.Decimal         `json:"subtotal_amount"`
	TotalAmount         decimal.Decimal         `json:"total_amount"`
	ApprovedBy          *uuid.UUID              `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time              `json:"approved_at,omitempty"`
	ApprovalNotes       string                  `json:"approval_notes,omitempty"`
	RejectionReasonCode string                  `json:"rejection_reason_code,omitempty"`
	RejectionNotes      string                  `json:"rejection_notes,omitempty"`
	SalesOrderID        *uuid.UUID              `json:"sales_order_id,omitempty"`
	Items               []QuotationItemResponse `json:"items"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
	Version             int                     `json:"version"`
}

// ToQuotationResponse converts a domain quotation
func ToQuotationResponse(q *trade.Quotation) QuotationResponse {
	items := make([]QuotationItemResponse, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, QuotationItemResponse{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			TaxPercent:      it.TaxPercent,
			LineTotal:       it.LineTotal,
		})
	}
	return QuotationResponse{
		ID:                  q.ID,
		QuotationNumber:     q.QuotationNumber,
		CustomerID:          q.CustomerID,
		CustomerName:        q.CustomerName,
		WarehouseID:         q.WarehouseID,
		Status:              string(q.Status),
		ValidUntil:          q.ValidUntil,
		Notes:               q.Notes,
		SubtotalAmount:      q.SubtotalAmount,
		TotalAmount:         q.TotalAmount,
		ApprovedBy:          q.ApprovedBy,
		ApprovedAt:          q.ApprovedAt,
		ApprovalNotes:       q.ApprovalNotes,
		RejectionReasonCode: q.RejectionReasonCode,
		RejectionNotes:      q.RejectionNotes,
		SalesOrderID:        q.SalesOrderID,
		Items:               items,
		CreatedAt:           q.CreatedAt,
		UpdatedAt:           q.UpdatedAt,
		Version:             q.Version,
	}
}

// QuotationListFilter represents filter options for the quotation list
type QuotationListFilter struct {
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ==================== Sales Order ====================

// CancelSalesOrderRequest carries a mandatory reason
type CancelSalesOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SalesOrderItemResponse represents a sales order line
type SalesOrderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
	QuantityShipped decimal.Decimal `json:"quantity_shipped"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID           uuid.UUID                `json:"id"`
	OrderNumber  string                   `json:"order_number"`
	QuotationID  uuid.UUID                `json:"quotation_id"`
	CustomerID   uuid.UUID                `json:"customer_id"`
	CustomerName string                   `json:"customer_name"`
	WarehouseID  uuid.UUID                `json:"warehouse_id"`
	Status       string                   `json:"status"`
	TotalAmount  decimal.Decimal          `json:"total_amount"`
	CancelReason string                   `json:"cancel_reason,omitempty"`
	ShippedAt    *time.Time               `json:"shipped_at,omitempty"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
	CancelledAt  *time.Time               `json:"cancelled_at,omitempty"`
	Items        []SalesOrderItemResponse `json:"items"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	Version      int                      `json:"version"`
}

// ToSalesOrderResponse converts a domain sales order
func ToSalesOrderResponse(o *trade.SalesOrder) SalesOrderResponse {
	items := make([]SalesOrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, SalesOrderItemResponse{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			TaxPercent:      it.TaxPercent,
			LineTotal:       it.LineTotal,
			QuantityShipped: it.QuantityShipped,
		})
	}
	return SalesOrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		QuotationID:  o.QuotationID,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		WarehouseID:  o.WarehouseID,
		Status:       string(o.Status),
		TotalAmount:  o.TotalAmount,
		CancelReason: o.CancelReason,
		ShippedAt:    o.ShippedAt,
		CompletedAt:  o.CompletedAt,
		CancelledAt:  o.CancelledAt,
		Items:        items,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Version:      o.Version,
	}
}

// SalesOrderListFilter represents filter options for the sales order list
type SalesOrderListFilter struct {
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ==================== Procurement ====================

// CreatePurchaseOrderRequest creates an OPEN purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID   uuid.UUID                      `json:"supplier_id" binding:"required"`
	SupplierName string                         `json:"supplier_name" binding:"required,max=200"`
	WarehouseID  uuid.UUID                      `json:"warehouse_id" binding:"required"`
	Items        []CreatePurchaseOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreatePurchaseOrderItemInput is one purchase order line
type CreatePurchaseOrderItemInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required,decimal_positive"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CancelPurchaseOrderRequest carries a mandatory reason
type CancelPurchaseOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PurchaseOrderItemResponse represents a purchase order line
type PurchaseOrderItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	QuantityOrdered  decimal.Decimal `json:"quantity_ordered"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
}

// PurchaseOrderResponse represents a purchase order
type PurchaseOrderResponse struct {
	ID           uuid.UUID                   `json:"id"`
	OrderNumber  string                      `json:"order_number"`
	SupplierID   uuid.UUID                   `json:"supplier_id"`
	SupplierName string                      `json:"supplier_name"`
	WarehouseID  uuid.UUID                   `json:"warehouse_id"`
	Status       string                      `json:"status"`
	TotalAmount  decimal.Decimal             `json:"total_amount"`
	CancelReason string                      `json:"cancel_reason,omitempty"`
	Items        []PurchaseOrderItemResponse `json:"items"`
	CreatedAt    time.Time                   `json:"created_at"`
	Version      int                         `json:"version"`
}

// ToPurchaseOrderResponse converts a domain purchase order
func ToPurchaseOrderResponse(o *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, PurchaseOrderItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			QuantityOrdered:  it.QuantityOrdered,
			QuantityReceived: it.QuantityReceived,
			UnitCost:         it.UnitCost,
		})
	}
	return PurchaseOrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		SupplierID:   o.SupplierID,
		SupplierName: o.SupplierName,
		WarehouseID:  o.WarehouseID,
		Status:       string(o.Status),
		TotalAmount:  o.TotalAmount,
		CancelReason: o.CancelReason,
		Items:        items,
		CreatedAt:    o.CreatedAt,
		Version:      o.Version,
	}
}

// CreateGoodsReceiptRequest drafts a receipt against a purchase order
type CreateGoodsReceiptRequest struct {
	PurchaseOrderID uuid.UUID                     `json:"purchase_order_id" binding:"required"`
	Notes           string                        `json:"notes" binding:"max=2000"`
	Items           []CreateGoodsReceiptItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateGoodsReceiptItemInput is one counted line
type CreateGoodsReceiptItemInput struct {
	PurchaseOrderItemID uuid.UUID       `json:"purchase_order_item_id" binding:"required"`
	Quantity            decimal.Decimal `json:"quantity" binding:"required,decimal_positive"`
	Condition           string          `json:"condition" binding:"omitempty,oneof=GOOD DAMAGED DEFECTIVE WRONG_ITEM"`
	BatchNumber         string          `json:"batch_number" binding:"max=50"`
}

// GoodsReceiptItemResponse represents a receipt line
type GoodsReceiptItemResponse struct {
	ID                      uuid.UUID       `json:"id"`
	PurchaseOrderItemID     uuid.UUID       `json:"purchase_order_item_id"`
	ProductID               uuid.UUID       `json:"product_id"`
	QuantityOrdered         decimal.Decimal `json:"quantity_ordered"`
	QuantityAlreadyReceived decimal.Decimal `json:"quantity_already_received"`
	QuantityReceived        decimal.Decimal `json:"quantity_received"`
	Condition               string          `json:"condition"`
	BatchNumber             string          `json:"batch_number,omitempty"`
}

// GoodsReceiptResponse represents a goods receipt
type GoodsReceiptResponse struct {
	ID              uuid.UUID                  `json:"id"`
	ReceiptNumber   string                     `json:"receipt_number"`
	PurchaseOrderID uuid.UUID                  `json:"purchase_order_id"`
	WarehouseID     uuid.UUID                  `json:"warehouse_id"`
	Status          string                     `json:"status"`
	ReceivedAt      *time.Time                 `json:"received_at,omitempty"`
	Notes           string                     `json:"notes,omitempty"`
	Items           []GoodsReceiptItemResponse `json:"items"`
	CreatedAt       time.Time                  `json:"created_at"`
}

// ToGoodsReceiptResponse converts a domain goods receipt
func ToGoodsReceiptResponse(gr *trade.GoodsReceipt) GoodsReceiptResponse {
	items := make([]GoodsReceiptItemResponse, 0, len(gr.Items))
	for _, it := range gr.Items {
		items = append(items, GoodsReceiptItemResponse{
			ID:                      it.ID,
			PurchaseOrderItemID:     it.PurchaseOrderItemID,
			ProductID:               it.ProductID,
			QuantityOrdered:         it.QuantityOrdered,
			QuantityAlreadyReceived: it.QuantityAlreadyReceived,
			QuantityReceived:        it.QuantityReceived,
			Condition:               string(it.Condition),
			BatchNumber:             it.BatchNumber,
		})
	}
	return GoodsReceiptResponse{
		ID:              gr.ID,
		ReceiptNumber:   gr.ReceiptNumber,
		PurchaseOrderID: gr.PurchaseOrderID,
		WarehouseID:     gr.WarehouseID,
		Status:          string(gr.Status),
		ReceivedAt:      gr.ReceivedAt,
		Notes:           gr.Notes,
		Items:           items,
		CreatedAt:       gr.CreatedAt,
	}
}

// ==================== Sales Return ====================

// CreateSalesReturnRequest opens a return against a shipped order
type CreateSalesReturnRequest struct {
	SalesOrderID uuid.UUID                    `json:"sales_order_id" binding:"required"`
	Reason       string                       `json:"reason" binding:"max=2000"`
	Items        []CreateSalesReturnItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateSalesReturnItemInput is one returned line
type CreateSalesReturnItemInput struct {
	SalesOrderItemID uuid.UUID       `json:"sales_order_item_id" binding:"required"`
	Quantity         decimal.Decimal `json:"quantity" binding:"required,decimal_positive"`
	Condition        string          `json:"condition" binding:"omitempty,oneof=GOOD DAMAGED"`
}

// RejectSalesReturnRequest carries a mandatory reason
type RejectSalesReturnRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

// SalesReturnItemResponse represents a returned line
type SalesReturnItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	SalesOrderItemID uuid.UUID       `json:"sales_order_item_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	Amount           decimal.Decimal `json:"amount"`
	Condition        string          `json:"condition"`
}

// SalesReturnResponse represents a sales return
type SalesReturnResponse struct {
	ID           uuid.UUID                 `json:"id"`
	ReturnNumber string                    `json:"return_number"`
	SalesOrderID uuid.UUID                 `json:"sales_order_id"`
	CustomerID   uuid.UUID                 `json:"customer_id"`
	WarehouseID  uuid.UUID                 `json:"warehouse_id"`
	Status       string                    `json:"status"`
	TotalAmount  decimal.Decimal           `json:"total_amount"`
	Reason       string                    `json:"reason,omitempty"`
	RejectReason string                    `json:"reject_reason,omitempty"`
	CreditNoteID *uuid.UUID                `json:"credit_note_id,omitempty"`
	Items        []SalesReturnItemResponse `json:"items"`
	CreatedAt    time.Time                 `json:"created_at"`
	Version      int                       `json:"version"`
}

// ToSalesReturnResponse converts a domain sales return
func ToSalesReturnResponse(sr *trade.SalesReturn) SalesReturnResponse {
	items := make([]SalesReturnItemResponse, 0, len(sr.Items))
	for _, it := range sr.Items {
		items = append(items, SalesReturnItemResponse{
			ID:               it.ID,
			SalesOrderItemID: it.SalesOrderItemID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			Amount:           it.Amount,
			Condition:        string(it.Condition),
		})
	}
	return SalesReturnResponse{
		ID:           sr.ID,
		ReturnNumber: sr.ReturnNumber,
		SalesOrderID: sr.SalesOrderID,
		CustomerID:   sr.CustomerID,
		WarehouseID:  sr.WarehouseID,
		Status:       string(sr.Status),
		TotalAmount:  sr.TotalAmount,
		Reason:       sr.Reason,
		RejectReason: sr.RejectReason,
		CreditNoteID: sr.CreditNoteID,
		Items:        items,
		CreatedAt:    sr.CreatedAt,
		Version:      sr.Version,
	}
}
