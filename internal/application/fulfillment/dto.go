package fulfillment

import (
	"time"

	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePickingListRequest names exactly one source document
type CreatePickingListRequest struct {
	SalesOrderID        *uuid.UUID `json:"sales_order_id"`
	WarehouseTransferID *uuid.UUID `json:"warehouse_transfer_id"`
}

// RecordPickRequest carries the quantity just picked
type RecordPickRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required,decimal_positive"`
}

// PickingListItemResponse represents a picking list line
type PickingListItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
	QuantityPicked   decimal.Decimal `json:"quantity_picked"`
}

// PickingListResponse represents a picking list
type PickingListResponse struct {
	ID              uuid.UUID                 `json:"id"`
	ListNumber      string                    `json:"list_number"`
	SourceType      string                    `json:"source_type"`
	SourceID        uuid.UUID                 `json:"source_id"`
	WarehouseID     uuid.UUID                 `json:"warehouse_id"`
	Status          string                    `json:"status"`
	CompletedAt     *time.Time                `json:"completed_at,omitempty"`
	DeliveryOrderID *uuid.UUID                `json:"delivery_order_id,omitempty"`
	Items           []PickingListItemResponse `json:"items"`
	CreatedAt       time.Time                 `json:"created_at"`
	Version         int                       `json:"version"`
}

// ToPickingListResponse converts a domain picking list
func ToPickingListResponse(pl *fulfillment.PickingList) PickingListResponse {
	items := make([]PickingListItemResponse, 0, len(pl.Items))
	for _, it := range pl.Items {
		items = append(items, PickingListItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			QuantityRequired: it.QuantityRequired,
			QuantityPicked:   it.QuantityPicked,
		})
	}
	return PickingListResponse{
		ID:          pl.ID,
		ListNumber:  pl.ListNumber,
		SourceType:  string(pl.SourceType),
		SourceID:    pl.SourceID,
		WarehouseID: pl.WarehouseID,
		Status:      string(pl.Status),
		CompletedAt: pl.CompletedAt,
		Items:       items,
		CreatedAt:   pl.CreatedAt,
		Version:     pl.Version,
	}
}

// UpdateDeliveryStatusRequest moves a delivery order one step forward.
// The shipping fields are read when the target is READY_TO_SHIP.
type UpdateDeliveryStatusRequest struct {
	Status           string     `json:"status" binding:"required,oneof=READY_TO_SHIP SHIPPED DELIVERED"`
	Carrier          string     `json:"carrier" binding:"max=100"`
	TrackingNumber   string     `json:"tracking_number" binding:"max=100"`
	VehicleNumber    string     `json:"vehicle_number" binding:"max=50"`
	EstimatedArrival *time.Time `json:"estimated_arrival"`
}

// DeliveryOrderItemResponse represents a delivery line
type DeliveryOrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// DeliveryOrderResponse represents a delivery order
type DeliveryOrderResponse struct {
	ID                     uuid.UUID                   `json:"id"`
	DeliveryNumber         string                      `json:"delivery_number"`
	SourceType             string                      `json:"source_type"`
	SourceID               uuid.UUID                   `json:"source_id"`
	PickingListID          *uuid.UUID                  `json:"picking_list_id,omitempty"`
	WarehouseID            uuid.UUID                   `json:"warehouse_id"`
	DestinationWarehouseID *uuid.UUID                  `json:"destination_warehouse_id,omitempty"`
	CustomerID             *uuid.UUID                  `json:"customer_id,omitempty"`
	Status                 string                      `json:"status"`
	Carrier                string                      `json:"carrier,omitempty"`
	TrackingNumber         string                      `json:"tracking_number,omitempty"`
	VehicleNumber          string                      `json:"vehicle_number,omitempty"`
	EstimatedArrival       *time.Time                  `json:"estimated_arrival,omitempty"`
	ShippedAt              *time.Time                  `json:"shipped_at,omitempty"`
	DeliveredAt            *time.Time                  `json:"delivered_at,omitempty"`
	CancelReason           string                      `json:"cancel_reason,omitempty"`
	CancelledAt            *time.Time                  `json:"cancelled_at,omitempty"`
	Items                  []DeliveryOrderItemResponse `json:"items"`
	CreatedAt              time.Time                   `json:"created_at"`
	Version                int                         `json:"version"`
}

// ToDeliveryOrderResponse converts a domain delivery order
func ToDeliveryOrderResponse(do *fulfillment.DeliveryOrder) DeliveryOrderResponse {
	items := make([]DeliveryOrderItemResponse, 0, len(do.Items))
	for _, it := range do.Items {
		items = append(items, DeliveryOrderItemResponse{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return DeliveryOrderResponse{
		ID:                     do.ID,
		DeliveryNumber:         do.DeliveryNumber,
		SourceType:             string(do.SourceType),
		SourceID:               do.SourceID,
		PickingListID:          do.PickingListID,
		WarehouseID:            do.WarehouseID,
		DestinationWarehouseID: do.DestinationWarehouseID,
		CustomerID:             do.CustomerID,
		Status:                 string(do.Status),
		Carrier:                do.Shipping.Carrier,
		TrackingNumber:         do.Shipping.TrackingNumber,
		VehicleNumber:          do.Shipping.VehicleNumber,
		EstimatedArrival:       do.Shipping.EstimatedArrival,
		ShippedAt:              do.ShippedAt,
		DeliveredAt:            do.DeliveredAt,
		CancelReason:           do.CancelReason,
		CancelledAt:            do.CancelledAt,
		Items:                  items,
		CreatedAt:              do.CreatedAt,
		Version:                do.Version,
	}
}
