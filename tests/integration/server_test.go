package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	catalogapp "github.com/erp/stockledger/internal/application/catalog"
	eventapp "github.com/erp/stockledger/internal/application/event"
	financeapp "github.com/erp/stockledger/internal/application/finance"
	fulfillmentapp "github.com/erp/stockledger/internal/application/fulfillment"
	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	tradeapp "github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/event"
	"github.com/erp/stockledger/internal/infrastructure/export"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/erp/stockledger/internal/interfaces/http/handler"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/erp/stockledger/internal/interfaces/http/router"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// LedgerServer is the full HTTP surface over a PostgreSQL ledger, with the
// outbox drained on demand instead of by the background poller
type LedgerServer struct {
	DB         *TestDB
	Engine     *gin.Engine
	Client     *testutil.APIClient
	Processor  *event.OutboxProcessor
	Products   []*catalog.Product
	Warehouses []*catalog.Warehouse
}

// NewLedgerServer wires every service the way the server binary does
func NewLedgerServer(t *testing.T) *LedgerServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	tdb := NewTestDB(t)
	log := zap.NewNop()

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxRepo := event.NewGormOutboxRepository(tdb.DB)
	scope := uow.WithRetry(
		persistence.NewGormTransactionScope(tdb.DB, event.NewOutboxPublisher(serializer, event.WithMaxRetries(3)), 2*time.Second),
		uow.DefaultRetryPolicy(), log,
	)
	ledger := inventoryapp.NewStockLedger(inventoryapp.WithInvariantValidation(true))

	validator := inventoryapp.NewConsistencyValidator(scope, nil)
	stockService := inventoryapp.NewStockService(scope, ledger, validator)
	salesOrders := tradeapp.NewSalesOrderService(scope, ledger)
	creditNotes := financeapp.NewCreditNoteService(scope)
	workflow := config.WorkflowConfig{
		RejectionReasons:    config.DefaultRejectionReasons,
		AutoDraftCreditNote: true,
		QuotationValidity:   7 * 24 * time.Hour,
	}

	coordination, err := cache.NewCoordination(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = coordination.Close() })

	bus := event.NewInMemoryEventBus(log)
	for _, h := range event.WrapHandlersWithIdempotency(
		[]shared.EventHandler{
			tradeapp.NewDeliveryDeliveredHandler(salesOrders, log),
			financeapp.NewSalesReturnApprovedHandler(creditNotes, workflow.AutoDraftCreditNote, log),
		},
		coordination.Idempotency, log,
		event.WithStepLock(coordination.Locker, 10*time.Second),
	) {
		bus.Subscribe(h)
	}
	processor := event.NewOutboxProcessor(outboxRepo, bus, serializer, event.DefaultOutboxProcessorConfig(), log)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Actor())
	r := router.NewRouter(engine)
	router.RegisterLedgerRoutes(r, router.LedgerHandlers{
		Catalog:     handler.NewCatalogHandler(catalogapp.NewCatalogService(scope)),
		Stock:       handler.NewStockHandler(stockService, inventoryapp.NewExportService(scope, export.NewMovementWorkbook())),
		Transfer:    handler.NewTransferHandler(inventoryapp.NewTransferService(scope, ledger)),
		Quotation:   handler.NewQuotationHandler(tradeapp.NewQuotationService(scope, ledger, workflow)),
		SalesOrder:  handler.NewSalesOrderHandler(salesOrders),
		Fulfillment: handler.NewFulfillmentHandler(fulfillmentapp.NewPickingService(scope), fulfillmentapp.NewDeliveryService(scope, ledger)),
		Procurement: handler.NewProcurementHandler(tradeapp.NewProcurementService(scope, ledger)),
		SalesReturn: handler.NewSalesReturnHandler(tradeapp.NewReturnService(scope, ledger)),
		Invoice: handler.NewInvoiceHandler(financeapp.NewInvoiceService(scope, config.FinanceConfig{
			PaymentTerms:     30 * 24 * time.Hour,
			OverdueBatchSize: 50,
		})),
		CreditNote:     handler.NewCreditNoteHandler(creditNotes),
		FinanceAccount: handler.NewFinanceAccountHandler(financeapp.NewAccountService(scope)),
		Outbox:         handler.NewOutboxHandler(eventapp.NewOutboxService(outboxRepo, log)),
	})
	r.Setup()

	return &LedgerServer{
		DB:         tdb,
		Engine:     engine,
		Client:     testutil.NewAPIClient(engine),
		Processor:  processor,
		Products:   []*catalog.Product{tdb.CreateProduct("SKU-A"), tdb.CreateProduct("SKU-B")},
		Warehouses: []*catalog.Warehouse{tdb.CreateWarehouse("WH-MAIN"), tdb.CreateWarehouse("WH-EAST")},
	}
}

// DrainOutbox delivers every pending outbox entry to the saga handlers
func (s *LedgerServer) DrainOutbox(t *testing.T) {
	t.Helper()
	for {
		n, err := s.Processor.ProcessPending(context.Background())
		require.NoError(t, err)
		if n == 0 {
			return
		}
	}
}

// Receive puts qty of product on hand through a stock adjustment
func (s *LedgerServer) Receive(t *testing.T, product, warehouse int, qty int64) {
	t.Helper()
	w := s.Client.Do(t, http.MethodPost, "/stock/adjustments", map[string]any{
		"product_id":   s.Products[product].ID,
		"warehouse_id": s.Warehouses[warehouse].ID,
		"delta":        decimal.NewFromInt(qty),
		"reason":       "opening balance",
	}, shared.CapStockAdjust)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// Record returns the stock record of product in warehouse
func (s *LedgerServer) Record(t *testing.T, product, warehouse int) inventoryapp.StockRecordResponse {
	t.Helper()
	w := s.Client.Do(t, http.MethodGet, "/stock?product_id="+s.Products[product].ID.String()+
		"&warehouse_id="+s.Warehouses[warehouse].ID.String()+"&include_hidden=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	records := testutil.DataAs[[]inventoryapp.StockRecordResponse](t, w)
	require.Len(t, records, 1)
	return records[0]
}
