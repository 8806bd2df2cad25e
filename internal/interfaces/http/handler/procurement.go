package handler

import (
	"github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ProcurementHandler handles purchase orders and goods receipts
type ProcurementHandler struct {
	BaseHandler
	procurement *trade.ProcurementService
}

// NewProcurementHandler creates a new procurement handler
func NewProcurementHandler(procurement *trade.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{procurement: procurement}
}

// GetPurchaseOrder handles GET /purchase-orders/:id
func (h *ProcurementHandler) GetPurchaseOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	po, err := h.procurement.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// CreatePurchaseOrder handles POST /purchase-orders
func (h *ProcurementHandler) CreatePurchaseOrder(c *gin.Context) {
	var req trade.CreatePurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	po, err := h.procurement.CreatePurchaseOrder(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, po)
}

// CancelPurchaseOrder handles POST /purchase-orders/:id/cancel
func (h *ProcurementHandler) CancelPurchaseOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req trade.CancelPurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	po, err := h.procurement.CancelPurchaseOrder(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// GetGoodsReceipt handles GET /goods-receipts/:id
func (h *ProcurementHandler) GetGoodsReceipt(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	gr, err := h.procurement.GetGoodsReceipt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gr)
}

// CreateGoodsReceipt handles POST /goods-receipts
func (h *ProcurementHandler) CreateGoodsReceipt(c *gin.Context) {
	var req trade.CreateGoodsReceiptRequest
	if !h.bindJSON(c, &req) {
		return
	}
	gr, err := h.procurement.CreateGoodsReceipt(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gr)
}

// ReceiveGoods handles POST /goods-receipts/:id/receive
func (h *ProcurementHandler) ReceiveGoods(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	gr, err := h.procurement.ReceiveGoods(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gr)
}
