package handler

import (
	"github.com/erp/stockledger/internal/application/catalog"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CatalogHandler handles products and warehouses
type CatalogHandler struct {
	BaseHandler
	catalog *catalog.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc *catalog.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

// CreateProduct handles POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req catalog.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter catalog.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	products, total, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, products, total, page, size)
}

// CreateWarehouse handles POST /warehouses
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req catalog.CreateWarehouseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	wh, err := h.catalog.CreateWarehouse(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, wh)
}

// GetWarehouse handles GET /warehouses/:id
func (h *CatalogHandler) GetWarehouse(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	wh, err := h.catalog.GetWarehouse(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, wh)
}

// ListWarehouses handles GET /warehouses
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	var filter catalog.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	warehouses, total, err := h.catalog.ListWarehouses(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, warehouses, total, page, size)
}
