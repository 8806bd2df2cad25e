package finance

import (
	"context"
	"testing"

	tradeapp "github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// approvedReturn delivers qty units and approves a return of returned
// units, worth 12 each
func (f *financeFixture) approvedReturn(t *testing.T, qty, returned int64) *tradeapp.SalesReturnResponse {
	t.Helper()
	ctx := context.Background()
	order, _ := f.deliveredOrder(t, qty)
	sr, err := f.returns.Create(ctx, f.actor, tradeapp.CreateSalesReturnRequest{
		SalesOrderID: order.ID,
		Reason:       "damaged in transit",
		Items:        []tradeapp.CreateSalesReturnItemInput{{SalesOrderItemID: order.Items[0].ID, Quantity: dec(returned)}},
	})
	require.NoError(t, err)
	sr, err = f.returns.Approve(ctx, f.actor, sr.ID)
	require.NoError(t, err)
	return sr
}

func TestCreditNoteService_Lifecycle(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	sr := f.approvedReturn(t, 5, 2)

	cn, err := f.credits.Create(ctx, f.actor, CreateCreditNoteRequest{SalesReturnID: sr.ID})
	require.NoError(t, err)
	assert.Equal(t, string(finance.CreditNoteStatusDraft), cn.Status)
	assert.True(t, cn.TotalAmount.Equal(sr.TotalAmount))
	assert.True(t, cn.Remaining.Equal(sr.TotalAmount))

	completed, err := f.returns.Get(ctx, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.ReturnStatusCompleted), completed.Status)

	t.Run("repeat returns the same note", func(t *testing.T) {
		again, err := f.credits.Create(ctx, f.actor, CreateCreditNoteRequest{SalesReturnID: sr.ID})
		require.NoError(t, err)
		assert.Equal(t, cn.ID, again.ID)
		assert.Len(t, f.env.Outbox.EventsOfType(finance.EventTypeCreditNoteDrafted), 1)
	})

	inv := f.invoice(t, 1) // total 12

	t.Run("drafts cannot be claimed", func(t *testing.T) {
		_, err := f.credits.Claim(ctx, f.actor, cn.ID, ClaimCreditNoteRequest{InvoiceID: inv.ID})
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
	})

	issued, err := f.credits.Issue(ctx, f.actor, cn.ID)
	require.NoError(t, err)
	assert.Equal(t, string(finance.CreditNoteStatusIssued), issued.Status)
	require.NotNil(t, issued.IssuedAt)

	claim, err := f.credits.Claim(ctx, f.actor, cn.ID, ClaimCreditNoteRequest{InvoiceID: inv.ID})
	require.NoError(t, err)
	assert.True(t, claim.AppliedAmount.Equal(dec(12)))
	assert.Equal(t, string(finance.InvoiceStatusPaid), claim.Invoice.Status)
	assert.True(t, claim.Invoice.CreditedAmount.Equal(dec(12)))
	assert.Equal(t, string(finance.CreditNoteStatusIssued), claim.CreditNote.Status)
	assert.True(t, claim.CreditNote.Remaining.Equal(dec(12)))

	t.Run("voiding a partly used note", func(t *testing.T) {
		_, err := f.credits.Void(ctx, f.actor, cn.ID, VoidCreditNoteRequest{Reason: "issued in error"})
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
	})

	second := f.invoice(t, 2) // total 24
	claim, err = f.credits.Claim(ctx, f.actor, cn.ID, ClaimCreditNoteRequest{InvoiceID: second.ID})
	require.NoError(t, err)
	assert.True(t, claim.AppliedAmount.Equal(dec(12)))
	assert.Equal(t, string(finance.InvoiceStatusPartial), claim.Invoice.Status)
	assert.Equal(t, string(finance.CreditNoteStatusUsed), claim.CreditNote.Status)
	assert.True(t, claim.CreditNote.Remaining.IsZero())

	apps, err := f.env.Scope.Reader().CreditNotes().ListApplications(ctx, cn.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestCreditNoteService_Rules(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()

	t.Run("only approved returns", func(t *testing.T) {
		order, _ := f.deliveredOrder(t, 3)
		sr, err := f.returns.Create(ctx, f.actor, tradeapp.CreateSalesReturnRequest{
			SalesOrderID: order.ID,
			Items:        []tradeapp.CreateSalesReturnItemInput{{SalesOrderItemID: order.Items[0].ID, Quantity: dec(1)}},
		})
		require.NoError(t, err)
		_, err = f.credits.Create(ctx, f.actor, CreateCreditNoteRequest{SalesReturnID: sr.ID})
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
	})

	t.Run("unknown return", func(t *testing.T) {
		_, err := f.credits.Create(ctx, f.actor, CreateCreditNoteRequest{SalesReturnID: uuid.New()})
		assert.Equal(t, shared.CodeReferenceNotFound, shared.ErrorCode(err))
	})

	t.Run("requires the credit note capability", func(t *testing.T) {
		_, err := f.credits.Create(ctx, testutil.TestActor(shared.CapInvoiceManage), CreateCreditNoteRequest{SalesReturnID: uuid.New()})
		assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(err))
	})

	t.Run("void needs a reason", func(t *testing.T) {
		sr := f.approvedReturn(t, 2, 1)
		cn, err := f.credits.Create(ctx, f.actor, CreateCreditNoteRequest{SalesReturnID: sr.ID})
		require.NoError(t, err)
		_, err = f.credits.Void(ctx, f.actor, cn.ID, VoidCreditNoteRequest{})
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
		voided, err := f.credits.Void(ctx, f.actor, cn.ID, VoidCreditNoteRequest{Reason: "customer kept goods"})
		require.NoError(t, err)
		assert.Equal(t, string(finance.CreditNoteStatusVoid), voided.Status)
		_, err = f.credits.Issue(ctx, f.actor, cn.ID)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
	})

	t.Run("other customers' invoices", func(t *testing.T) {
		sr := f.approvedReturn(t, 1, 1)
		cn, err := f.credits.Create(ctx, f.actor, CreateCreditNoteRequest{SalesReturnID: sr.ID})
		require.NoError(t, err)
		_, err = f.credits.Issue(ctx, f.actor, cn.ID)
		require.NoError(t, err)

		f.customer = testutil.NewTestUUID("other-customer")
		inv := f.invoice(t, 1)
		_, err = f.credits.Claim(ctx, f.actor, cn.ID, ClaimCreditNoteRequest{InvoiceID: inv.ID})
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})
}

func TestSalesReturnApprovedHandler(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	sr := f.approvedReturn(t, 4, 1)
	events := f.env.Outbox.EventsOfType(trade.EventTypeSalesReturnApproved)
	require.Len(t, events, 1)

	handler := NewSalesReturnApprovedHandler(f.credits, true, zap.NewNop())
	assert.Equal(t, []string{trade.EventTypeSalesReturnApproved}, handler.EventTypes())

	t.Run("disabled", func(t *testing.T) {
		off := NewSalesReturnApprovedHandler(f.credits, false, zap.NewNop())
		require.NoError(t, off.Handle(ctx, events[0]))
		_, err := f.env.Scope.Reader().CreditNotes().FindBySalesReturnID(ctx, sr.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	require.NoError(t, handler.Handle(ctx, events[0]))
	cn, err := f.env.Scope.Reader().CreditNotes().FindBySalesReturnID(ctx, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.CreditNoteStatusDraft, cn.Status)

	t.Run("redelivery drafts nothing new", func(t *testing.T) {
		require.NoError(t, handler.Handle(ctx, events[0]))
		assert.Len(t, f.env.Outbox.EventsOfType(finance.EventTypeCreditNoteDrafted), 1)
	})

	t.Run("wrong event type", func(t *testing.T) {
		err := handler.Handle(ctx, testutil.NewTestEvent(trade.EventTypeSalesReturnApproved, uuid.Nil))
		assert.Error(t, err)
	})
}

// zeroReturn approves a return and then clears its value, as a return of
// goods that were given away would be
func (f *financeFixture) zeroReturn(t *testing.T) *tradeapp.SalesReturnResponse {
	t.Helper()
	sr := f.approvedReturn(t, 2, 1)
	err := f.env.Scope.Execute(context.Background(), func(ctx context.Context, repos uow.Repositories) error {
		ret, err := repos.SalesReturns().FindByIDForUpdate(ctx, sr.ID)
		if err != nil {
			return err
		}
		ret.TotalAmount = decimal.Zero
		return repos.SalesReturns().Save(ctx, ret)
	})
	require.NoError(t, err)
	return sr
}

func TestCreditNoteService_ZeroValueReturn(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()

	t.Run("create is rejected", func(t *testing.T) {
		sr := f.zeroReturn(t)
		_, err := f.credits.Create(ctx, f.actor, CreateCreditNoteRequest{SalesReturnID: sr.ID})
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

		_, err = f.env.Scope.Reader().CreditNotes().FindBySalesReturnID(ctx, sr.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		got, err := f.env.Scope.Reader().SalesReturns().FindByID(ctx, sr.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.ReturnStatusApproved, got.Status)
	})

	t.Run("saga step skips it", func(t *testing.T) {
		sr := f.zeroReturn(t)
		handler := NewSalesReturnApprovedHandler(f.credits, true, zap.NewNop())

		var approved shared.DomainEvent
		for _, e := range f.env.Outbox.EventsOfType(trade.EventTypeSalesReturnApproved) {
			if e.AggregateID() == sr.ID {
				approved = e
			}
		}
		require.NotNil(t, approved)

		require.NoError(t, handler.Handle(ctx, approved))
		_, err := f.env.Scope.Reader().CreditNotes().FindBySalesReturnID(ctx, sr.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
