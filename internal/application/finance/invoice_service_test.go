package finance

import (
	"context"
	"testing"
	"time"

	fulfillmentapp "github.com/erp/stockledger/internal/application/fulfillment"
	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	tradeapp "github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
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

type financeFixture struct {
	env        *testutil.LedgerEnv
	ledger     *inventoryapp.StockLedger
	quotations *tradeapp.QuotationService
	returns    *tradeapp.ReturnService
	picking    *fulfillmentapp.PickingService
	deliveries *fulfillmentapp.DeliveryService
	invoices   *InvoiceService
	credits    *CreditNoteService
	accounts   *AccountService
	actor      shared.Actor
	customer   uuid.UUID
}

func newFinanceFixture(t *testing.T) *financeFixture {
	env := testutil.NewLedgerEnv(t)
	ledger := inventoryapp.NewStockLedger()
	return &financeFixture{
		env:    env,
		ledger: ledger,
		quotations: tradeapp.NewQuotationService(env.Scope, ledger, config.WorkflowConfig{
			RejectionReasons:  config.DefaultRejectionReasons,
			QuotationValidity: 24 * time.Hour,
		}),
		returns:    tradeapp.NewReturnService(env.Scope, ledger),
		picking:    fulfillmentapp.NewPickingService(env.Scope),
		deliveries: fulfillmentapp.NewDeliveryService(env.Scope, ledger),
		invoices: NewInvoiceService(env.Scope, config.FinanceConfig{
			PaymentTerms:     30 * 24 * time.Hour,
			OverdueBatchSize: 50,
		}),
		credits:  NewCreditNoteService(env.Scope),
		accounts: NewAccountService(env.Scope),
		actor:    testutil.TestActor(shared.CapAll),
		customer: testutil.NewTestUUID("customer"),
	}
}

// deliveredOrder runs a one-line order of qty units at unit price 10 with a
// 20% tax through picking and delivery. It returns the order and its
// DELIVERED delivery order.
func (f *financeFixture) deliveredOrder(t *testing.T, qty int64) (*tradeapp.SalesOrderResponse, uuid.UUID) {
	t.Helper()
	return f.orderDelivery(t, qty, "DELIVERED")
}

// orderDelivery is deliveredOrder stopping once the delivery reaches status
func (f *financeFixture) orderDelivery(t *testing.T, qty int64, status string) (*tradeapp.SalesOrderResponse, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	product := f.env.ProductID(0)
	err := f.env.Scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		_, err := f.ledger.Receive(ctx, repos, inventoryapp.Posting{
			ProductID:   product,
			WarehouseID: f.env.WarehouseID(0),
			Quantity:    dec(qty),
			Ref:         inventory.NewReference(inventory.RefGoodsReceipt, uuid.New()),
		})
		return err
	})
	require.NoError(t, err)

	q, err := f.quotations.Create(ctx, f.actor, tradeapp.CreateQuotationRequest{
		CustomerID:   f.customer,
		CustomerName: "ACME",
		WarehouseID:  f.env.WarehouseID(0),
		Items: []tradeapp.CreateQuotationItemInput{
			{ProductID: product, Quantity: dec(qty), UnitPrice: dec(10), TaxPercent: dec(20)},
		},
	})
	require.NoError(t, err)
	_, err = f.quotations.Submit(ctx, f.actor, q.ID)
	require.NoError(t, err)
	_, err = f.quotations.Approve(ctx, f.actor, q.ID, tradeapp.ApproveQuotationRequest{})
	require.NoError(t, err)
	order, err := f.quotations.Convert(ctx, f.actor, q.ID)
	require.NoError(t, err)

	pl, err := f.picking.Create(ctx, f.actor, fulfillmentapp.CreatePickingListRequest{SalesOrderID: &order.ID})
	require.NoError(t, err)
	picked, err := f.picking.RecordPick(ctx, f.actor, pl.Items[0].ID, dec(qty))
	require.NoError(t, err)
	require.NotNil(t, picked.DeliveryOrderID)
	doID := *picked.DeliveryOrderID

	for _, req := range []fulfillmentapp.UpdateDeliveryStatusRequest{
		{Status: "READY_TO_SHIP", Carrier: "DHL"},
		{Status: "SHIPPED"},
		{Status: "DELIVERED"},
	} {
		_, err := f.deliveries.UpdateStatus(ctx, f.actor, doID, req)
		require.NoError(t, err)
		if req.Status == status {
			break
		}
	}
	return order, doID
}

func (f *financeFixture) invoice(t *testing.T, qty int64) *InvoiceResponse {
	t.Helper()
	_, doID := f.deliveredOrder(t, qty)
	inv, err := f.invoices.Create(context.Background(), f.actor, CreateInvoiceRequest{DeliveryOrderID: doID, PONumber: "PO-77"})
	require.NoError(t, err)
	return inv
}

func TestInvoiceService_Create(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	order, doID := f.deliveredOrder(t, 5)

	inv, err := f.invoices.Create(ctx, f.actor, CreateInvoiceRequest{DeliveryOrderID: doID, PONumber: "PO-77"})
	require.NoError(t, err)
	assert.Equal(t, string(finance.InvoiceStatusUnpaid), inv.Status)
	assert.Equal(t, order.ID, inv.SalesOrderID)
	assert.Equal(t, f.customer, inv.CustomerID)
	assert.Equal(t, "PO-77", inv.PONumber)
	assert.True(t, inv.TotalAmount.Equal(dec(60)), "5 x 10 plus 20%% tax, got %s", inv.TotalAmount)
	assert.True(t, inv.BalanceDue.Equal(dec(60)))
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), inv.DueDate, time.Minute)
	assert.Len(t, f.env.Outbox.EventsOfType(finance.EventTypeInvoiceCreated), 1)

	t.Run("one invoice per delivery", func(t *testing.T) {
		_, err := f.invoices.Create(ctx, f.actor, CreateInvoiceRequest{DeliveryOrderID: doID})
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})

	t.Run("unknown delivery order", func(t *testing.T) {
		_, err := f.invoices.Create(ctx, f.actor, CreateInvoiceRequest{DeliveryOrderID: uuid.New()})
		assert.Equal(t, shared.CodeReferenceNotFound, shared.ErrorCode(err))
	})

	t.Run("requires the invoice capability", func(t *testing.T) {
		_, err := f.invoices.Create(ctx, testutil.TestActor(shared.CapPaymentRecord), CreateInvoiceRequest{DeliveryOrderID: doID})
		assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(err))
	})
}

func TestInvoiceService_CreateBeforeDelivery(t *testing.T) {
	f := newFinanceFixture(t)
	_, doID := f.orderDelivery(t, 1, "SHIPPED")

	_, err := f.invoices.Create(context.Background(), f.actor, CreateInvoiceRequest{DeliveryOrderID: doID})
	assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
}

func TestInvoiceService_RecordPayment(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	inv := f.invoice(t, 5)
	account, err := f.accounts.Create(ctx, f.actor, CreateFinanceAccountRequest{Code: "BANK-1", Name: "Main bank", Type: "BANK"})
	require.NoError(t, err)

	t.Run("over payment changes nothing", func(t *testing.T) {
		_, err := f.invoices.RecordPayment(ctx, f.actor, inv.ID, RecordPaymentRequest{Amount: dec(61), Method: "CASH", FinanceAccountID: &account.ID})
		assert.Equal(t, shared.CodeOverPayment, shared.ErrorCode(err))
		got, err := f.invoices.Get(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalPaid.IsZero())
		acc, err := f.accounts.Get(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, acc.Balance.IsZero())
	})

	resp, err := f.invoices.RecordPayment(ctx, f.actor, inv.ID, RecordPaymentRequest{Amount: dec(25), Method: "BANK_TRANSFER", FinanceAccountID: &account.ID})
	require.NoError(t, err)
	assert.Equal(t, string(finance.InvoiceStatusPartial), resp.Invoice.Status)
	assert.True(t, resp.Invoice.BalanceDue.Equal(dec(35)))
	assert.True(t, resp.Payment.AmountPaid.Equal(dec(25)))

	resp, err = f.invoices.RecordPayment(ctx, f.actor, inv.ID, RecordPaymentRequest{Amount: dec(35), Method: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, string(finance.InvoiceStatusPaid), resp.Invoice.Status)
	assert.True(t, resp.Invoice.BalanceDue.IsZero())
	require.NotNil(t, resp.Invoice.PaidAt)

	payments, err := f.invoices.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	// only the first payment went through the account
	txs, total, err := f.accounts.ListTransactions(ctx, account.ID, TransactionListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txs, 1)
	assert.Equal(t, string(finance.DirectionIn), txs[0].Direction)
	assert.Equal(t, string(finance.SourcePayment), txs[0].SourceType)
	assert.True(t, txs[0].BalanceAfter.Equal(dec(25)))

	t.Run("paid invoices take no more money", func(t *testing.T) {
		_, err := f.invoices.RecordPayment(ctx, f.actor, inv.ID, RecordPaymentRequest{Amount: dec(1), Method: "CASH"})
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
	})

	t.Run("unknown account rolls back the payment", func(t *testing.T) {
		other := f.invoice(t, 1)
		missing := uuid.New()
		_, err := f.invoices.RecordPayment(ctx, f.actor, other.ID, RecordPaymentRequest{Amount: dec(1), Method: "CARD", FinanceAccountID: &missing})
		assert.Equal(t, shared.CodeReferenceNotFound, shared.ErrorCode(err))
		payments, err := f.invoices.ListPayments(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})
}

func TestInvoiceService_MarkOverdue(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	unpaid := f.invoice(t, 1)
	partial := f.invoice(t, 2)
	_, err := f.invoices.RecordPayment(ctx, f.actor, partial.ID, RecordPaymentRequest{Amount: dec(1), Method: "CASH"})
	require.NoError(t, err)

	t.Run("not before the due date", func(t *testing.T) {
		_, err := f.invoices.MarkOverdue(ctx, f.actor, unpaid.ID)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	f.invoices.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	result, err := f.invoices.MarkOverdueInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
	assert.Zero(t, result.Failed)

	got, err := f.invoices.Get(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, string(finance.InvoiceStatusOverdue), got.Status)
	require.NotNil(t, got.OverdueAt)

	got, err = f.invoices.Get(ctx, partial.ID)
	require.NoError(t, err)
	assert.Equal(t, string(finance.InvoiceStatusPartial), got.Status)

	t.Run("partially paid invoices never become overdue", func(t *testing.T) {
		_, err := f.invoices.MarkOverdue(ctx, f.actor, partial.ID)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
	})

	t.Run("second run finds nothing", func(t *testing.T) {
		result, err := f.invoices.MarkOverdueInvoices(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.Marked)
	})

	t.Run("overdue invoices still take payment", func(t *testing.T) {
		resp, err := f.invoices.RecordPayment(ctx, f.actor, unpaid.ID, RecordPaymentRequest{Amount: unpaid.TotalAmount, Method: "CASH"})
		require.NoError(t, err)
		assert.Equal(t, string(finance.InvoiceStatusPaid), resp.Invoice.Status)
	})
}
