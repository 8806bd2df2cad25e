package finance

import (
	"context"
	"testing"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Postings(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()

	acct, err := f.accounts.Create(ctx, f.actor, CreateFinanceAccountRequest{Code: "CASH-01", Name: "Front desk", Type: "CASH"})
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())
	assert.EqualValues(t, 0, acct.LastSequence)

	t.Run("codes are unique", func(t *testing.T) {
		_, err := f.accounts.Create(ctx, f.actor, CreateFinanceAccountRequest{Code: "CASH-01", Name: "Again", Type: "CASH"})
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})

	t.Run("expense beyond the balance", func(t *testing.T) {
		_, err := f.accounts.RecordExpense(ctx, f.actor, acct.ID, RecordExpenseRequest{Amount: dec(1), Notes: "stamps"})
		assert.Equal(t, shared.CodeInsufficientBalance, shared.ErrorCode(err))
	})

	tx, err := f.accounts.Adjust(ctx, f.actor, acct.ID, AdjustAccountRequest{Delta: dec(100), Reason: "opening float"})
	require.NoError(t, err)
	assert.Equal(t, string(finance.DirectionIn), tx.Direction)
	assert.EqualValues(t, 1, tx.Sequence)
	assert.True(t, tx.BalanceAfter.Equal(dec(100)))

	tx, err = f.accounts.RecordExpense(ctx, f.actor, acct.ID, RecordExpenseRequest{Amount: dec(30), Notes: "courier"})
	require.NoError(t, err)
	assert.Equal(t, string(finance.DirectionOut), tx.Direction)
	assert.Equal(t, string(finance.SourceExpense), tx.SourceType)
	assert.True(t, tx.BalanceAfter.Equal(dec(70)))

	tx, err = f.accounts.Adjust(ctx, f.actor, acct.ID, AdjustAccountRequest{Delta: dec(-20), Reason: "count short"})
	require.NoError(t, err)
	assert.Equal(t, string(finance.DirectionOut), tx.Direction)
	assert.True(t, tx.Amount.Equal(dec(20)))
	assert.True(t, tx.BalanceAfter.Equal(dec(50)))

	t.Run("zero adjustment", func(t *testing.T) {
		_, err := f.accounts.Adjust(ctx, f.actor, acct.ID, AdjustAccountRequest{Reason: "nothing"})
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("adjusting below zero", func(t *testing.T) {
		_, err := f.accounts.Adjust(ctx, f.actor, acct.ID, AdjustAccountRequest{Delta: dec(-51), Reason: "write-off"})
		assert.Equal(t, shared.CodeInsufficientBalance, shared.ErrorCode(err))
	})

	got, err := f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(50)))
	assert.EqualValues(t, 3, got.LastSequence)

	txs, total, err := f.accounts.ListTransactions(ctx, acct.ID, TransactionListFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, txs, 2)

	t.Run("unknown account", func(t *testing.T) {
		_, _, err := f.accounts.ListTransactions(ctx, uuid.New(), TransactionListFilter{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = f.accounts.RecordExpense(ctx, f.actor, uuid.New(), RecordExpenseRequest{Amount: dec(1), Notes: "x"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("requires the finance capability", func(t *testing.T) {
		_, err := f.accounts.Adjust(ctx, testutil.TestActor(shared.CapPaymentRecord), acct.ID, AdjustAccountRequest{Delta: dec(1), Reason: "x"})
		assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(err))
	})
}

func TestAccountService_Reconcile(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()

	acct, err := f.accounts.Create(ctx, f.actor, CreateFinanceAccountRequest{Code: "BANK-01", Name: "Operating", Type: "BANK"})
	require.NoError(t, err)
	_, err = f.accounts.Adjust(ctx, f.actor, acct.ID, AdjustAccountRequest{Delta: dec(40), Reason: "opening"})
	require.NoError(t, err)
	inv := f.invoice(t, 1)
	_, err = f.invoices.RecordPayment(ctx, f.actor, inv.ID, RecordPaymentRequest{Amount: dec(12), Method: "BANK_TRANSFER", FinanceAccountID: &acct.ID})
	require.NoError(t, err)

	res, err := f.accounts.Reconcile(ctx, f.actor, acct.ID)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 2, res.Transactions)
	assert.True(t, res.Balance.Equal(dec(52)))

	require.NoError(t, f.env.DB.Model(&finance.FinanceAccount{}).
		Where("id = ?", acct.ID).
		Update("balance", dec(60)).Error)

	res, err = f.accounts.Reconcile(ctx, f.actor, acct.ID)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "BANK-01")
}
