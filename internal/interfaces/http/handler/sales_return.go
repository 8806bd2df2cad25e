package handler

import (
	"github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// SalesReturnHandler handles customer returns
type SalesReturnHandler struct {
	BaseHandler
	returns *trade.ReturnService
}

// NewSalesReturnHandler creates a new sales return handler
func NewSalesReturnHandler(returns *trade.ReturnService) *SalesReturnHandler {
	return &SalesReturnHandler{returns: returns}
}

// Get handles GET /sales-returns/:id
func (h *SalesReturnHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	ret, err := h.returns.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// Create handles POST /sales-returns
func (h *SalesReturnHandler) Create(c *gin.Context) {
	var req trade.CreateSalesReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ret, err := h.returns.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}

// Approve handles POST /sales-returns/:id/approve
func (h *SalesReturnHandler) Approve(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	ret, err := h.returns.Approve(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// Reject handles POST /sales-returns/:id/reject
func (h *SalesReturnHandler) Reject(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req trade.RejectSalesReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ret, err := h.returns.Reject(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}
