package handler

import (
	"github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// QuotationHandler handles the quotation lifecycle up to conversion
type QuotationHandler struct {
	BaseHandler
	quotations *trade.QuotationService
}

// NewQuotationHandler creates a new quotation handler
func NewQuotationHandler(quotations *trade.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotations: quotations}
}

// Get handles GET /quotations/:id
func (h *QuotationHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	q, err := h.quotations.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// List handles GET /quotations
func (h *QuotationHandler) List(c *gin.Context) {
	var filter trade.QuotationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.quotations.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, items, total, page, size)
}

// Create handles POST /quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	var req trade.CreateQuotationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	q, err := h.quotations.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, q)
}

// Submit handles POST /quotations/:id/submit
func (h *QuotationHandler) Submit(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	q, err := h.quotations.Submit(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// Approve handles POST /quotations/:id/approve. The body is optional.
func (h *QuotationHandler) Approve(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req trade.ApproveQuotationRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	q, err := h.quotations.Approve(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// Reject handles POST /quotations/:id/reject
func (h *QuotationHandler) Reject(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req trade.RejectQuotationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	q, err := h.quotations.Reject(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// Convert handles POST /quotations/:id/convert and answers with the new sales order
func (h *QuotationHandler) Convert(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.quotations.Convert(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}
