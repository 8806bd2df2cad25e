package handler

import (
	"github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// TransferHandler handles inter-warehouse transfer requests
type TransferHandler struct {
	BaseHandler
	transfers *inventory.TransferService
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(transfers *inventory.TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// Get handles GET /transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	transfer, err := h.transfers.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transfer)
}

// List handles GET /transfers
func (h *TransferHandler) List(c *gin.Context) {
	var filter inventory.TransferListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	transfers, total, err := h.transfers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, transfers, total, page, size)
}

// Request handles POST /transfers
func (h *TransferHandler) Request(c *gin.Context) {
	var req inventory.RequestTransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	transfer, err := h.transfers.Request(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, transfer)
}

// Approve handles POST /transfers/:id/approve
func (h *TransferHandler) Approve(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	transfer, err := h.transfers.Approve(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transfer)
}

// Deliver handles POST /transfers/:id/deliver
func (h *TransferHandler) Deliver(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req inventory.TransferQuantityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	transfer, err := h.transfers.Deliver(c.Request.Context(), middleware.GetActor(c), id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transfer)
}

// Receive handles POST /transfers/:id/receive
func (h *TransferHandler) Receive(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req inventory.TransferQuantityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	transfer, err := h.transfers.Receive(c.Request.Context(), middleware.GetActor(c), id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transfer)
}

// Cancel handles POST /transfers/:id/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req inventory.CancelRequest
	if !h.bindJSON(c, &req) {
		return
	}
	transfer, err := h.transfers.Cancel(c.Request.Context(), middleware.GetActor(c), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transfer)
}
