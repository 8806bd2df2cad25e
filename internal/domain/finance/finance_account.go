package finance

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies a finance account
type AccountType string

const (
	AccountTypeCash AccountType = "CASH"
	AccountTypeBank AccountType = "BANK"
)

// IsValid checks if the type is a valid AccountType
func (t AccountType) IsValid() bool {
	return t == AccountTypeCash || t == AccountTypeBank
}

// Direction is the sign of a finance transaction
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// TransactionSource names what caused a finance transaction
type TransactionSource string

const (
	SourcePayment    TransactionSource = "PAYMENT"
	SourceExpense    TransactionSource = "EXPENSE"
	SourceAdjustment TransactionSource = "ADJUSTMENT"
)

// FinanceTransaction is an immutable entry in an account's ledger
type FinanceTransaction struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	AccountID    uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_finance_tx_sequence,priority:1;index:idx_finance_tx_lookup,priority:1"`
	Sequence     int64             `gorm:"not null;uniqueIndex:idx_finance_tx_sequence,priority:2"`
	Direction    Direction         `gorm:"type:varchar(5);not null"`
	Amount       decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	BalanceAfter decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	SourceType   TransactionSource `gorm:"type:varchar(20);not null"`
	SourceID     *uuid.UUID        `gorm:"type:uuid;index"`
	Notes        string            `gorm:"type:text"`
	ActorID      *uuid.UUID        `gorm:"type:uuid"`
	CreatedAt    time.Time         `gorm:"not null;index:idx_finance_tx_lookup,priority:2"`
}

// TableName returns the table name for GORM
func (FinanceTransaction) TableName() string {
	return "finance_transactions"
}

// Signed returns the amount with the sign of its direction
func (t *FinanceTransaction) Signed() decimal.Decimal {
	if t.Direction == DirectionOut {
		return t.Amount.Neg()
	}
	return t.Amount
}

// FinanceAccount is a cash box or bank account. Its balance only changes by
// appending a FinanceTransaction.
type FinanceAccount struct {
	shared.BaseAggregateRoot
	Code         string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Type         AccountType     `gorm:"type:varchar(10);not null"`
	Balance      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LastSequence int64           `gorm:"not null;default:0"`
	Active       bool            `gorm:"not null;default:true"`

	pending []*FinanceTransaction `gorm:"-"`
}

// TableName returns the table name for GORM
func (FinanceAccount) TableName() string {
	return "finance_accounts"
}

// NewFinanceAccount creates an active account with a zero balance
func NewFinanceAccount(code, name string, accountType AccountType) (*FinanceAccount, error) {
	if code == "" || name == "" {
		return nil, shared.NewValidationError("Account code and name are required")
	}
	if !accountType.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Unknown account type %q", accountType))
	}
	return &FinanceAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Type:              accountType,
		Balance:           decimal.Zero,
		Active:            true,
	}, nil
}

// PendingTransactions returns transactions appended since the last save
func (a *FinanceAccount) PendingTransactions() []*FinanceTransaction {
	return a.pending
}

// ClearPendingTransactions is called by the repository after insert
func (a *FinanceAccount) ClearPendingTransactions() {
	a.pending = nil
}

// Deposit records money coming in
func (a *FinanceAccount) Deposit(amount decimal.Decimal, source TransactionSource, sourceID *uuid.UUID, notes string, actorID *uuid.UUID) (*FinanceTransaction, error) {
	return a.post(DirectionIn, amount, source, sourceID, notes, actorID)
}

// Withdraw records money going out; the balance must cover it
func (a *FinanceAccount) Withdraw(amount decimal.Decimal, source TransactionSource, sourceID *uuid.UUID, notes string, actorID *uuid.UUID) (*FinanceTransaction, error) {
	return a.post(DirectionOut, amount, source, sourceID, notes, actorID)
}

// Adjust corrects the balance by a signed delta
func (a *FinanceAccount) Adjust(delta decimal.Decimal, reason string, actorID *uuid.UUID) (*FinanceTransaction, error) {
	if reason == "" {
		return nil, shared.NewValidationError("Adjustment reason is required")
	}
	if delta.IsNegative() {
		return a.post(DirectionOut, delta.Abs(), SourceAdjustment, nil, reason, actorID)
	}
	return a.post(DirectionIn, delta, SourceAdjustment, nil, reason, actorID)
}

func (a *FinanceAccount) post(dir Direction, amount decimal.Decimal, source TransactionSource, sourceID *uuid.UUID, notes string, actorID *uuid.UUID) (*FinanceTransaction, error) {
	if !a.Active {
		return nil, shared.NewValidationError(fmt.Sprintf("Finance account %s is inactive", a.Code))
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Amount must be positive")
	}
	balance := a.Balance.Add(amount)
	if dir == DirectionOut {
		if amount.GreaterThan(a.Balance) {
			return nil, &shared.DomainError{
				Code:    shared.CodeInsufficientBalance,
				Message: fmt.Sprintf("Account %s balance %s cannot cover %s", a.Code, a.Balance, amount),
				Details: map[string]any{"account_id": a.ID, "balance": a.Balance, "amount": amount},
			}
		}
		balance = a.Balance.Sub(amount)
	}

	now := time.Now()
	a.LastSequence++
	a.Balance = balance
	a.UpdatedAt = now
	tx := &FinanceTransaction{
		ID:           uuid.New(),
		AccountID:    a.ID,
		Sequence:     a.LastSequence,
		Direction:    dir,
		Amount:       amount,
		BalanceAfter: balance,
		SourceType:   source,
		SourceID:     sourceID,
		Notes:        notes,
		ActorID:      actorID,
		CreatedAt:    now,
	}
	a.pending = append(a.pending, tx)
	a.AddDomainEvent(NewFinanceTransactionRecordedEvent(a, tx))
	return tx, nil
}

// ReconcileAccount folds the account's transactions from zero and checks the
// result, every balance snapshot and the sequence against the account.
func ReconcileAccount(a *FinanceAccount, txs []FinanceTransaction) error {
	balance := decimal.Zero
	for i := range txs {
		tx := &txs[i]
		if tx.Sequence != int64(i+1) {
			return shared.NewInvariantViolationError(
				fmt.Sprintf("Finance account %s has a gap at sequence %d", a.Code, i+1),
				map[string]any{"account_id": a.ID, "expected_sequence": i + 1, "found_sequence": tx.Sequence})
		}
		balance = balance.Add(tx.Signed())
		if balance.IsNegative() || !balance.Equal(tx.BalanceAfter) {
			return shared.NewInvariantViolationError(
				fmt.Sprintf("Finance account %s replay diverges at sequence %d", a.Code, tx.Sequence),
				map[string]any{"account_id": a.ID, "sequence": tx.Sequence, "replayed": balance, "recorded": tx.BalanceAfter})
		}
	}
	if !balance.Equal(a.Balance) || a.LastSequence != int64(len(txs)) {
		return shared.NewInvariantViolationError(
			fmt.Sprintf("Finance account %s balance %s does not match replayed %s", a.Code, a.Balance, balance),
			map[string]any{"account_id": a.ID, "recorded": a.Balance, "replayed": balance, "last_sequence": a.LastSequence})
	}
	return nil
}
