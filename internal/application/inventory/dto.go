package inventory

import (
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecordResponse represents a stock record in API responses
type StockRecordResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	UnusableQuantity  decimal.Decimal `json:"unusable_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Hidden            bool            `json:"hidden"`
	LastSequence      int64           `json:"last_sequence"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToStockRecordResponse converts a domain stock record
func ToStockRecordResponse(r *inventory.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ID:                r.ID,
		ProductID:         r.ProductID,
		WarehouseID:       r.WarehouseID,
		Quantity:          r.Quantity,
		ReservedQuantity:  r.ReservedQuantity,
		UnusableQuantity:  r.UnusableQuantity,
		AvailableQuantity: r.AvailableQuantity,
		Hidden:            r.Hidden,
		LastSequence:      r.LastSequence,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.Version,
	}
}

// StockMovementResponse represents one ledger line
type StockMovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	Sequence      int64           `json:"sequence"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	QuantityDelta decimal.Decimal `json:"quantity_delta"`
	ReservedDelta decimal.Decimal `json:"reserved_delta"`
	UnusableDelta decimal.Decimal `json:"unusable_delta"`
	QuantityAfter decimal.Decimal `json:"quantity_after"`
	ReservedAfter decimal.Decimal `json:"reserved_after"`
	UnusableAfter decimal.Decimal `json:"unusable_after"`
	Condition     string          `json:"condition,omitempty"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	ActorID       *uuid.UUID      `json:"actor_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToStockMovementResponse converts a domain movement
func ToStockMovementResponse(m *inventory.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		Sequence:      m.Sequence,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		QuantityDelta: m.QuantityDelta,
		ReservedDelta: m.ReservedDelta,
		UnusableDelta: m.UnusableDelta,
		QuantityAfter: m.QuantityAfter,
		ReservedAfter: m.ReservedAfter,
		UnusableAfter: m.UnusableAfter,
		Condition:     string(m.Condition),
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		ActorID:       m.ActorID,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
	}
}

// StockListFilter represents filter options for the stock list
type StockListFilter struct {
	ProductID     *uuid.UUID `form:"product_id"`
	WarehouseID   *uuid.UUID `form:"warehouse_id"`
	IncludeHidden bool       `form:"include_hidden"`
	OnlyAvailable bool       `form:"only_available"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MovementListFilter represents filter options for the movement list
type MovementListFilter struct {
	ProductID     *uuid.UUID `form:"product_id"`
	WarehouseID   *uuid.UUID `form:"warehouse_id"`
	ReferenceType string     `form:"reference_type"`
	ReferenceID   *uuid.UUID `form:"reference_id"`
	Types         []string   `form:"type"`
	From          *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To            *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (f MovementListFilter) toDomain() inventory.MovementFilter {
	types := make([]inventory.MovementType, 0, len(f.Types))
	for _, t := range f.Types {
		types = append(types, inventory.MovementType(t))
	}
	return inventory.MovementFilter{
		ProductID:     f.ProductID,
		WarehouseID:   f.WarehouseID,
		ReferenceType: f.ReferenceType,
		ReferenceID:   f.ReferenceID,
		Types:         types,
		From:          f.From,
		To:            f.To,
		Page:          f.Page,
		PageSize:      f.PageSize,
	}
}

// StockOperationRequest is the body of damage, reversal and disposal requests
type StockOperationRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,decimal_positive"`
	Condition   string          `json:"condition" binding:"omitempty,oneof=DAMAGED DEFECTIVE WRONG_ITEM"`
	Notes       string          `json:"notes" binding:"max=1000"`
}

// AdjustStockRequest corrects a balance by a signed delta
type AdjustStockRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Delta       decimal.Decimal `json:"delta" binding:"required"`
	Reason      string          `json:"reason" binding:"required,max=500"`
}

// SetVisibilityRequest toggles the display flag of a stock record
type SetVisibilityRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	Hidden      bool      `json:"hidden"`
}

// ReconcileRequest selects one record; with no product and warehouse every
// record is checked
type ReconcileRequest struct {
	ProductID   *uuid.UUID `json:"product_id"`
	WarehouseID *uuid.UUID `json:"warehouse_id"`
}

// ReconcileReport lists the records whose ledger does not reproduce them
type ReconcileReport struct {
	Checked    int                  `json:"checked"`
	Mismatches []inventory.Mismatch `json:"mismatches"`
	CheckedAt  time.Time            `json:"checked_at"`
}

// OK reports whether every checked record reconciled
func (r ReconcileReport) OK() bool {
	return len(r.Mismatches) == 0
}

// TransferResponse represents a warehouse transfer
type TransferResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	FromWarehouseID   uuid.UUID       `json:"from_warehouse_id"`
	ToWarehouseID     uuid.UUID       `json:"to_warehouse_id"`
	Status            string          `json:"status"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	QuantityDelivered decimal.Decimal `json:"quantity_delivered"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	InTransitLoss     decimal.Decimal `json:"in_transit_loss"`
	DeliveryOrderID   *uuid.UUID      `json:"delivery_order_id,omitempty"`
	ApprovedBy        *uuid.UUID      `json:"approved_by,omitempty"`
	CancelReason      string          `json:"cancel_reason,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToTransferResponse converts a domain transfer
func ToTransferResponse(t *inventory.WarehouseTransfer) TransferResponse {
	return TransferResponse{
		ID:                t.ID,
		ProductID:         t.ProductID,
		FromWarehouseID:   t.FromWarehouseID,
		ToWarehouseID:     t.ToWarehouseID,
		Status:            string(t.Status),
		QuantityRequested: t.QuantityRequested,
		QuantityDelivered: t.QuantityDelivered,
		QuantityReceived:  t.QuantityReceived,
		InTransitLoss:     t.InTransitLoss(),
		DeliveryOrderID:   t.DeliveryOrderID,
		ApprovedBy:        t.ApprovedBy,
		CancelReason:      t.CancelReason,
		Notes:             t.Notes,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		Version:           t.Version,
	}
}

// RequestTransferRequest opens a transfer between two warehouses
type RequestTransferRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required,decimal_positive"`
	Notes           string          `json:"notes" binding:"max=1000"`
}

// TransferQuantityRequest carries the quantity delivered or received
type TransferQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required,decimal_positive"`
}

// CancelRequest carries a mandatory reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// TransferListFilter represents filter options for the transfer list
type TransferListFilter struct {
	Status      string     `form:"status"`
	ProductID   *uuid.UUID `form:"product_id"`
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}
