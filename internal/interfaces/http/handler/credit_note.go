package handler

import (
	"github.com/erp/stockledger/internal/application/finance"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CreditNoteHandler handles credit notes raised from sales returns
type CreditNoteHandler struct {
	BaseHandler
	notes *finance.CreditNoteService
}

// NewCreditNoteHandler creates a new credit note handler
func NewCreditNoteHandler(notes *finance.CreditNoteService) *CreditNoteHandler {
	return &CreditNoteHandler{notes: notes}
}

// Get handles GET /credit-notes/:id
func (h *CreditNoteHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	note, err := h.notes.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}

// Create handles POST /credit-notes
func (h *CreditNoteHandler) Create(c *gin.Context) {
	var req finance.CreateCreditNoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	note, err := h.notes.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, note)
}

// Issue handles POST /credit-notes/:id/issue
func (h *CreditNoteHandler) Issue(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	note, err := h.notes.Issue(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}

// Claim handles POST /credit-notes/:id/claim
func (h *CreditNoteHandler) Claim(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req finance.ClaimCreditNoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.notes.Claim(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Void handles POST /credit-notes/:id/void
func (h *CreditNoteHandler) Void(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req finance.VoidCreditNoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	note, err := h.notes.Void(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}
