package trade

import (
	"context"
	"testing"
	"time"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

type tradeFixture struct {
	env        *testutil.LedgerEnv
	ledger     *inventoryapp.StockLedger
	quotations *QuotationService
	orders     *SalesOrderService
	actor      shared.Actor
	customer   uuid.UUID
}

func newTradeFixture(t *testing.T) *tradeFixture {
	env := testutil.NewLedgerEnv(t)
	ledger := inventoryapp.NewStockLedger()
	return &tradeFixture{
		env:    env,
		ledger: ledger,
		quotations: NewQuotationService(env.Scope, ledger, config.WorkflowConfig{
			RejectionReasons:  config.DefaultRejectionReasons,
			QuotationValidity: 7 * 24 * time.Hour,
		}),
		orders:   NewSalesOrderService(env.Scope, ledger),
		actor:    testutil.TestActor(shared.CapAll),
		customer: testutil.NewTestUUID("customer"),
	}
}

func (f *tradeFixture) stock(t *testing.T, product uuid.UUID, qty int64) {
	t.Helper()
	err := f.env.Scope.Execute(context.Background(), func(ctx context.Context, repos uow.Repositories) error {
		_, err := f.ledger.Receive(ctx, repos, inventoryapp.Posting{
			ProductID:   product,
			WarehouseID: f.env.WarehouseID(0),
			Quantity:    dec(qty),
			Ref:         inventory.NewReference(inventory.RefGoodsReceipt, uuid.New()),
		})
		return err
	})
	require.NoError(t, err)
}

func (f *tradeFixture) record(t *testing.T, product uuid.UUID) *inventory.StockRecord {
	t.Helper()
	rec, err := f.env.Scope.Reader().StockRecords().FindByProductAndWarehouse(context.Background(), product, f.env.WarehouseID(0))
	require.NoError(t, err)
	return rec
}

// approvedQuotation walks a quotation with one line per quantity to APPROVED
func (f *tradeFixture) approvedQuotation(t *testing.T, quantities ...int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	req := CreateQuotationRequest{
		CustomerID:   f.customer,
		CustomerName: "ACME",
		WarehouseID:  f.env.WarehouseID(0),
	}
	for i, qty := range quantities {
		req.Items = append(req.Items, CreateQuotationItemInput{
			ProductID: f.env.ProductID(i),
			Quantity:  dec(qty),
			UnitPrice: dec(10),
		})
	}
	q, err := f.quotations.Create(ctx, f.actor, req)
	require.NoError(t, err)
	_, err = f.quotations.Submit(ctx, f.actor, q.ID)
	require.NoError(t, err)
	_, err = f.quotations.Approve(ctx, f.actor, q.ID, ApproveQuotationRequest{Notes: "ok"})
	require.NoError(t, err)
	return q.ID
}

func TestQuotationService_Create(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()

	q, err := f.quotations.Create(ctx, f.actor, CreateQuotationRequest{
		CustomerID:   f.customer,
		CustomerName: "ACME",
		WarehouseID:  f.env.WarehouseID(0),
		Items: []CreateQuotationItemInput{
			{ProductID: f.env.ProductID(0), Quantity: dec(2), UnitPrice: dec(50), DiscountPercent: dec(10), TaxPercent: dec(20)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, string(trade.QuotationStatusDraft), q.Status)
	assert.NotEmpty(t, q.QuotationNumber)
	assert.True(t, q.SubtotalAmount.Equal(dec(90)))
	assert.True(t, q.TotalAmount.Equal(dec(108)))
	assert.True(t, q.ValidUntil.After(time.Now().Add(6*24*time.Hour)))

	t.Run("unknown product", func(t *testing.T) {
		_, err := f.quotations.Create(ctx, f.actor, CreateQuotationRequest{
			CustomerID:   f.customer,
			CustomerName: "ACME",
			WarehouseID:  f.env.WarehouseID(0),
			Items:        []CreateQuotationItemInput{{ProductID: uuid.New(), Quantity: dec(1)}},
		})
		assert.Equal(t, shared.CodeReferenceNotFound, shared.ErrorCode(err))
	})

	t.Run("requires the create capability", func(t *testing.T) {
		_, err := f.quotations.Create(ctx, testutil.TestActor(shared.CapStockView), CreateQuotationRequest{})
		assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(err))
	})
}

func TestQuotationService_ApproveAndReject(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()
	seller := testutil.TestActor(shared.CapQuotationCreate)

	q, err := f.quotations.Create(ctx, seller, CreateQuotationRequest{
		CustomerID:   f.customer,
		CustomerName: "ACME",
		WarehouseID:  f.env.WarehouseID(0),
		Items:        []CreateQuotationItemInput{{ProductID: f.env.ProductID(0), Quantity: dec(1), UnitPrice: dec(5)}},
	})
	require.NoError(t, err)

	_, err = f.quotations.Approve(ctx, f.actor, q.ID, ApproveQuotationRequest{})
	assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))

	_, err = f.quotations.Submit(ctx, seller, q.ID)
	require.NoError(t, err)

	_, err = f.quotations.Approve(ctx, seller, q.ID, ApproveQuotationRequest{})
	assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(err))

	_, err = f.quotations.Reject(ctx, f.actor, q.ID, RejectQuotationRequest{ReasonCode: "BORED"})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	resp, err := f.quotations.Reject(ctx, f.actor, q.ID, RejectQuotationRequest{ReasonCode: "PRICE", Notes: "too high"})
	require.NoError(t, err)
	assert.Equal(t, string(trade.QuotationStatusRejected), resp.Status)
	assert.Equal(t, "PRICE", resp.RejectionReasonCode)

	_, err = f.quotations.Convert(ctx, f.actor, q.ID)
	assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
}

func TestQuotationService_Convert(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()
	product := f.env.ProductID(0)
	f.stock(t, product, 3)
	id := f.approvedQuotation(t, 3)

	order, err := f.quotations.Convert(ctx, f.actor, id)
	require.NoError(t, err)
	assert.Equal(t, string(trade.OrderStatusPending), order.Status)
	require.Len(t, order.Items, 1)

	rec := f.record(t, product)
	assert.True(t, rec.ReservedQuantity.Equal(dec(3)))
	assert.True(t, rec.AvailableQuantity.IsZero())
	seq := rec.LastSequence

	q, err := f.quotations.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, q.SalesOrderID)
	assert.Equal(t, order.ID, *q.SalesOrderID)

	t.Run("repeat returns the same order without side effects", func(t *testing.T) {
		again, err := f.quotations.Convert(ctx, f.actor, id)
		require.NoError(t, err)
		assert.Equal(t, order.ID, again.ID)
		assert.Equal(t, seq, f.record(t, product).LastSequence)

		_, total, err := f.orders.List(ctx, SalesOrderListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}

func TestQuotationService_ConvertShortfall(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()
	f.stock(t, f.env.ProductID(0), 5)
	f.stock(t, f.env.ProductID(1), 1)
	id := f.approvedQuotation(t, 2, 4)

	_, err := f.quotations.Convert(ctx, f.actor, id)
	require.Error(t, err)
	assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))
	shortfalls := shared.Shortfalls(err)
	require.Len(t, shortfalls, 1)
	assert.Equal(t, f.env.ProductID(1), shortfalls[0].ProductID)
	assert.True(t, shortfalls[0].Shortfall.Equal(dec(3)))

	// the first line's reservation was rolled back
	assert.True(t, f.record(t, f.env.ProductID(0)).ReservedQuantity.IsZero())

	q, err := f.quotations.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(trade.QuotationStatusApproved), q.Status)
	assert.Nil(t, q.SalesOrderID)

	t.Run("every short line is listed", func(t *testing.T) {
		id := f.approvedQuotation(t, 6, 2)
		_, err := f.quotations.Convert(ctx, f.actor, id)
		assert.Len(t, shared.Shortfalls(err), 2)
	})

	t.Run("converts once stock arrives", func(t *testing.T) {
		f.stock(t, f.env.ProductID(1), 3)
		_, err := f.quotations.Convert(ctx, f.actor, id)
		require.NoError(t, err)
	})
}

func TestQuotationService_ConvertExpired(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()
	f.stock(t, f.env.ProductID(0), 1)
	id := f.approvedQuotation(t, 1)

	f.quotations.now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	_, err := f.quotations.Convert(ctx, f.actor, id)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
}
