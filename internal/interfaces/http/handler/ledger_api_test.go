package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	tradeapp "github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/export"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ledgerAPI serves stock, transfer and sales routes over a SQLite ledger
type ledgerAPI struct {
	env    *testutil.LedgerEnv
	client *testutil.APIClient
}

func newLedgerAPI(t *testing.T, exportOpts ...inventoryapp.ExportOption) *ledgerAPI {
	t.Helper()
	env := testutil.NewLedgerEnv(t)
	ledger := inventoryapp.NewStockLedger()
	stockSvc := inventoryapp.NewStockService(env.Scope, ledger, inventoryapp.NewConsistencyValidator(env.Scope, nil))
	exportSvc := inventoryapp.NewExportService(env.Scope, export.NewMovementWorkbook(), exportOpts...)

	stock := NewStockHandler(stockSvc, exportSvc)
	transfers := NewTransferHandler(inventoryapp.NewTransferService(env.Scope, ledger))
	quotations := NewQuotationHandler(tradeapp.NewQuotationService(env.Scope, ledger, config.WorkflowConfig{
		RejectionReasons:  config.DefaultRejectionReasons,
		QuotationValidity: 7 * 24 * time.Hour,
	}))
	orders := NewSalesOrderHandler(tradeapp.NewSalesOrderService(env.Scope, ledger))

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Actor())
	api := engine.Group("/api/v1")
	api.GET("/stock", stock.List)
	api.GET("/stock/movements", stock.ListMovements)
	api.GET("/stock/movements/export", stock.ExportMovements)
	api.POST("/stock/adjustments", stock.Adjust)
	api.POST("/stock/damages", stock.ReportDamage)
	api.POST("/stock/damage-reversals", stock.ReverseDamage)
	api.POST("/stock/disposals", stock.Dispose)
	api.PUT("/stock/visibility", stock.SetVisibility)
	api.POST("/stock/reconcile", stock.Reconcile)
	api.POST("/transfers", transfers.Request)
	api.GET("/transfers/:id", transfers.Get)
	api.POST("/transfers/:id/approve", transfers.Approve)
	api.POST("/transfers/:id/deliver", transfers.Deliver)
	api.POST("/transfers/:id/receive", transfers.Receive)
	api.POST("/transfers/:id/cancel", transfers.Cancel)
	api.POST("/quotations", quotations.Create)
	api.GET("/quotations/:id", quotations.Get)
	api.POST("/quotations/:id/submit", quotations.Submit)
	api.POST("/quotations/:id/approve", quotations.Approve)
	api.POST("/quotations/:id/reject", quotations.Reject)
	api.POST("/quotations/:id/convert", quotations.Convert)
	api.GET("/sales-orders/:id", orders.Get)
	api.POST("/sales-orders/:id/cancel", orders.Cancel)

	return &ledgerAPI{env: env, client: testutil.NewAPIClient(engine)}
}

func (a *ledgerAPI) do(t *testing.T, method, path string, body any, caps ...string) *httptest.ResponseRecorder {
	t.Helper()
	return a.client.Do(t, method, path, body, caps...)
}

// seed puts qty on hand through a stock adjustment
func (a *ledgerAPI) seed(t *testing.T, product, warehouse uuid.UUID, qty int64) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/stock/adjustments", map[string]any{
		"product_id":   product,
		"warehouse_id": warehouse,
		"delta":        decimal.NewFromInt(qty),
		"reason":       "opening balance",
	}, shared.CapStockAdjust)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func dataAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	return testutil.DataAs[T](t, w)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return testutil.ErrorCode(t, w)
}
