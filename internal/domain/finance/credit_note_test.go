package finance

import (
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSalesReturn(total string) *trade.SalesReturn {
	return &trade.SalesReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      "RT-2026-00001",
		SalesOrderID:      uuid.New(),
		CustomerID:        uuid.New(),
		Status:            trade.ReturnStatusApproved,
		TotalAmount:       dec(total),
	}
}

func newIssuedCreditNote(t *testing.T, total string) *CreditNote {
	t.Helper()
	cn, err := NewCreditNote("CN-2026-00001", newTestSalesReturn(total))
	require.NoError(t, err)
	require.NoError(t, cn.Issue())
	return cn
}

func invoiceFor(t *testing.T, customerID uuid.UUID, total string) *Invoice {
	t.Helper()
	inv := newTestInvoice(t, total, time.Now().Add(time.Hour))
	inv.CustomerID = customerID
	return inv
}

func TestNewCreditNote(t *testing.T) {
	sr := newTestSalesReturn("189")
	cn, err := NewCreditNote("CN-2026-00001", sr)

	require.NoError(t, err)
	assert.Equal(t, CreditNoteStatusDraft, cn.Status)
	assert.Equal(t, sr.ID, cn.SalesReturnID)
	assert.True(t, cn.Remaining().Equal(dec("189")))

	sr.Status = trade.ReturnStatusPending
	_, err = NewCreditNote("CN-2026-00002", sr)
	assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
}

func TestNewCreditNote_RequiresPositiveTotal(t *testing.T) {
	for _, total := range []string{"0", "-5"} {
		t.Run(total, func(t *testing.T) {
			cn, err := NewCreditNote("CN-2026-00001", newTestSalesReturn(total))
			assert.Nil(t, cn)
			assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
		})
	}
}

func TestCreditNote_Claim(t *testing.T) {
	t.Run("claim smaller than balance uses the note", func(t *testing.T) {
		cn := newIssuedCreditNote(t, "40")
		inv := invoiceFor(t, cn.CustomerID, "100")

		app, err := cn.Claim(inv, nil)

		require.NoError(t, err)
		assert.True(t, app.Amount.Equal(dec("40")))
		assert.Equal(t, CreditNoteStatusUsed, cn.Status)
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
		assert.True(t, inv.BalanceDue().Equal(dec("60")))
		assert.True(t, inv.CreditedAmount.Equal(dec("40")))
	})

	t.Run("claim larger than balance leaves a remainder", func(t *testing.T) {
		cn := newIssuedCreditNote(t, "150")
		inv := invoiceFor(t, cn.CustomerID, "100")

		app, err := cn.Claim(inv, nil)

		require.NoError(t, err)
		assert.True(t, app.Amount.Equal(dec("100")))
		assert.Equal(t, CreditNoteStatusIssued, cn.Status)
		assert.True(t, cn.Remaining().Equal(dec("50")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)

		second := invoiceFor(t, cn.CustomerID, "80")
		app, err = cn.Claim(second, nil)
		require.NoError(t, err)
		assert.True(t, app.Amount.Equal(dec("50")))
		assert.Equal(t, CreditNoteStatusUsed, cn.Status)
	})

	t.Run("other customer", func(t *testing.T) {
		cn := newIssuedCreditNote(t, "40")
		_, err := cn.Claim(invoiceFor(t, uuid.New(), "100"), nil)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("draft note", func(t *testing.T) {
		cn, err := NewCreditNote("CN-2026-00003", newTestSalesReturn("40"))
		require.NoError(t, err)
		_, err = cn.Claim(invoiceFor(t, cn.CustomerID, "100"), nil)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
	})

	t.Run("paid invoice", func(t *testing.T) {
		cn := newIssuedCreditNote(t, "40")
		inv := invoiceFor(t, cn.CustomerID, "100")
		_, err := inv.RecordPayment(dec("100"), PaymentMethodCash, nil, nil)
		require.NoError(t, err)
		_, err = cn.Claim(inv, nil)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
		assert.True(t, cn.UsedAmount.IsZero())
	})
}

func TestCreditNote_Void(t *testing.T) {
	t.Run("draft", func(t *testing.T) {
		cn, err := NewCreditNote("CN-2026-00001", newTestSalesReturn("40"))
		require.NoError(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(cn.Void("")))
		require.NoError(t, cn.Void("duplicate"))
		assert.Equal(t, CreditNoteStatusVoid, cn.Status)
		assert.True(t, cn.Status.IsTerminal())
	})

	t.Run("partially used cannot be voided", func(t *testing.T) {
		cn := newIssuedCreditNote(t, "150")
		_, err := cn.Claim(invoiceFor(t, cn.CustomerID, "100"), nil)
		require.NoError(t, err)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(cn.Void("mistake")))
	})

	t.Run("used is terminal", func(t *testing.T) {
		cn := newIssuedCreditNote(t, "10")
		_, err := cn.Claim(invoiceFor(t, cn.CustomerID, "100"), nil)
		require.NoError(t, err)
		assert.Error(t, cn.Void("mistake"))
		assert.Error(t, cn.Issue())
		assert.True(t, decimal.Zero.Equal(cn.Remaining()))
	})
}
