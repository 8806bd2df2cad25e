package handler

import (
	"github.com/erp/stockledger/internal/application/fulfillment"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FulfillmentHandler handles picking lists and delivery orders
type FulfillmentHandler struct {
	BaseHandler
	picking    *fulfillment.PickingService
	deliveries *fulfillment.DeliveryService
}

// NewFulfillmentHandler creates a new fulfillment handler
func NewFulfillmentHandler(picking *fulfillment.PickingService, deliveries *fulfillment.DeliveryService) *FulfillmentHandler {
	return &FulfillmentHandler{picking: picking, deliveries: deliveries}
}

// GetPickingList handles GET /picking-lists/:id
func (h *FulfillmentHandler) GetPickingList(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.picking.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// CreatePickingList handles POST /picking-lists
func (h *FulfillmentHandler) CreatePickingList(c *gin.Context) {
	var req fulfillment.CreatePickingListRequest
	if !h.bindJSON(c, &req) {
		return
	}
	list, err := h.picking.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, list)
}

// RecordPick handles POST /picking-lists/items/:item_id/picks
func (h *FulfillmentHandler) RecordPick(c *gin.Context) {
	itemID, ok := h.parseID(c, "item_id")
	if !ok {
		return
	}
	var req fulfillment.RecordPickRequest
	if !h.bindJSON(c, &req) {
		return
	}
	list, err := h.picking.RecordPick(c.Request.Context(), middleware.GetActor(c), itemID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// GetDeliveryOrder handles GET /delivery-orders/:id
func (h *FulfillmentHandler) GetDeliveryOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	do, err := h.deliveries.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, do)
}

// UpdateDeliveryStatus handles PUT /delivery-orders/:id/status
func (h *FulfillmentHandler) UpdateDeliveryStatus(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req fulfillment.UpdateDeliveryStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	do, err := h.deliveries.UpdateStatus(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, do)
}

type deliverySourceQuery struct {
	SourceType string     `form:"source_type" binding:"required,oneof=SO IT"`
	SourceID   *uuid.UUID `form:"source_id" binding:"required"`
}

// ListDeliveryOrders handles GET /delivery-orders?source_type=&source_id=
func (h *FulfillmentHandler) ListDeliveryOrders(c *gin.Context) {
	var q deliverySourceQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orders, err := h.deliveries.ListBySource(c.Request.Context(), q.SourceType, *q.SourceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}
