package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// StockHandler exposes stock queries and direct stock operations
type StockHandler struct {
	BaseHandler
	stock  *inventory.StockService
	export *inventory.ExportService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stock *inventory.StockService, export *inventory.ExportService) *StockHandler {
	return &StockHandler{stock: stock, export: export}
}

// List handles GET /stock
func (h *StockHandler) List(c *gin.Context) {
	var filter inventory.StockListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	records, total, err := h.stock.ListStock(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, records, total, page, size)
}

// ListMovements handles GET /stock/movements
func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter inventory.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	movements, total, err := h.stock.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, movements, total, page, size)
}

// Adjust handles POST /stock/adjustments
func (h *StockHandler) Adjust(c *gin.Context) {
	var req inventory.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	movement, err := h.stock.Adjust(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// ReportDamage handles POST /stock/damages
func (h *StockHandler) ReportDamage(c *gin.Context) {
	h.operation(c, h.stock.ReportDamage)
}

// ReverseDamage handles POST /stock/damage-reversals
func (h *StockHandler) ReverseDamage(c *gin.Context) {
	h.operation(c, h.stock.ReverseDamage)
}

// Dispose handles POST /stock/disposals
func (h *StockHandler) Dispose(c *gin.Context) {
	h.operation(c, h.stock.Dispose)
}

type stockOperation func(ctx context.Context, actor shared.Actor, req inventory.StockOperationRequest) (*inventory.StockMovementResponse, error)

func (h *StockHandler) operation(c *gin.Context, op stockOperation) {
	var req inventory.StockOperationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	movement, err := op(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// SetVisibility handles PUT /stock/visibility
func (h *StockHandler) SetVisibility(c *gin.Context) {
	var req inventory.SetVisibilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	record, err := h.stock.SetVisibility(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Reconcile handles POST /stock/reconcile. A report with mismatches is still a 200.
func (h *StockHandler) Reconcile(c *gin.Context) {
	var req inventory.ReconcileRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	report, err := h.stock.Reconcile(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ExportMovements handles GET /stock/movements/export. Without an archive the
// workbook is streamed; with one the response carries a presigned link.
func (h *StockHandler) ExportMovements(c *gin.Context) {
	var filter inventory.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	export, err := h.export.ExportMovements(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if export.DownloadURL != "" {
		h.Success(c, export)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(export.Rows))
	c.Header("X-Export-Truncated", strconv.FormatBool(export.Truncated))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}
