package handler

import (
	"github.com/erp/stockledger/internal/application/finance"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// FinanceAccountHandler handles cash and bank accounts
type FinanceAccountHandler struct {
	BaseHandler
	accounts *finance.AccountService
}

// NewFinanceAccountHandler creates a new finance account handler
func NewFinanceAccountHandler(accounts *finance.AccountService) *FinanceAccountHandler {
	return &FinanceAccountHandler{accounts: accounts}
}

// Get handles GET /finance-accounts/:id
func (h *FinanceAccountHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	account, err := h.accounts.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Create handles POST /finance-accounts
func (h *FinanceAccountHandler) Create(c *gin.Context) {
	var req finance.CreateFinanceAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	account, err := h.accounts.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// RecordExpense handles POST /finance-accounts/:id/expenses
func (h *FinanceAccountHandler) RecordExpense(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req finance.RecordExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.accounts.RecordExpense(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// Adjust handles POST /finance-accounts/:id/adjustments
func (h *FinanceAccountHandler) Adjust(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req finance.AdjustAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.accounts.Adjust(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// ListTransactions handles GET /finance-accounts/:id/transactions
func (h *FinanceAccountHandler) ListTransactions(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var filter finance.TransactionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	txs, total, err := h.accounts.ListTransactions(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, txs, total, page, size)
}

// Reconcile handles POST /finance-accounts/:id/reconcile
func (h *FinanceAccountHandler) Reconcile(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.accounts.Reconcile(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
