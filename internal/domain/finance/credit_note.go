package finance

import (
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditNoteStatus represents the status of a credit note
type CreditNoteStatus string

const (
	CreditNoteStatusDraft  CreditNoteStatus = "DRAFT"
	CreditNoteStatusIssued CreditNoteStatus = "ISSUED"
	CreditNoteStatusUsed   CreditNoteStatus = "USED"
	CreditNoteStatusVoid   CreditNoteStatus = "VOID"
)

var creditNoteTransitions = shared.TransitionTable[CreditNoteStatus]{
	CreditNoteStatusDraft:  {CreditNoteStatusIssued, CreditNoteStatusVoid},
	CreditNoteStatusIssued: {CreditNoteStatusUsed, CreditNoteStatusVoid},
}

// IsTerminal returns true if the credit note can no longer change
func (s CreditNoteStatus) IsTerminal() bool {
	return creditNoteTransitions.IsTerminal(s)
}

// CreditNoteApplication records part of a credit note settling an invoice
type CreditNoteApplication struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CreditNoteID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AppliedBy    *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt    time.Time
}

// TableName returns the table name for GORM
func (CreditNoteApplication) TableName() string {
	return "credit_note_applications"
}

// CreditNote is the amount owed back to a customer for an approved return
type CreditNote struct {
	shared.BaseAggregateRoot
	CreditNoteNumber string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	SalesReturnID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	SalesOrderID     uuid.UUID        `gorm:"type:uuid;not null"`
	CustomerID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status           CreditNoteStatus `gorm:"type:varchar(20);not null;index"`
	TotalAmount      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UsedAmount       decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	IssuedAt         *time.Time
	UsedAt           *time.Time
	VoidedAt         *time.Time
	VoidReason       string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CreditNote) TableName() string {
	return "credit_notes"
}

// NewCreditNote drafts a credit note for the full value of an approved
// return. A return worth nothing cannot be credited.
func NewCreditNote(number string, sr *trade.SalesReturn) (*CreditNote, error) {
	if number == "" {
		return nil, shared.NewValidationError("Credit note number is required")
	}
	if sr.Status != trade.ReturnStatusApproved {
		return nil, shared.NewInvalidTransitionError("sales return", sr.Status, trade.ReturnStatusCompleted)
	}
	if !sr.TotalAmount.IsPositive() {
		return nil, shared.NewValidationError("Credit note total must be positive").
			WithDetails(map[string]any{"sales_return_id": sr.ID, "total_amount": sr.TotalAmount})
	}
	cn := &CreditNote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CreditNoteNumber:  number,
		SalesReturnID:     sr.ID,
		SalesOrderID:      sr.SalesOrderID,
		CustomerID:        sr.CustomerID,
		Status:            CreditNoteStatusDraft,
		TotalAmount:       sr.TotalAmount,
		UsedAmount:        decimal.Zero,
	}
	cn.AddDomainEvent(NewCreditNoteEvent(EventTypeCreditNoteDrafted, cn, decimal.Zero, nil))
	return cn, nil
}

// Remaining returns the amount still available to claim
func (cn *CreditNote) Remaining() decimal.Decimal {
	return cn.TotalAmount.Sub(cn.UsedAmount)
}

// Issue makes a drafted note claimable
func (cn *CreditNote) Issue() error {
	if err := creditNoteTransitions.Check("credit note", cn.Status, CreditNoteStatusIssued); err != nil {
		return err
	}
	now := time.Now()
	cn.Status = CreditNoteStatusIssued
	cn.IssuedAt = &now
	cn.UpdatedAt = now
	cn.AddDomainEvent(NewCreditNoteEvent(EventTypeCreditNoteIssued, cn, decimal.Zero, nil))
	return nil
}

// Void cancels a note that has not been used
func (cn *CreditNote) Void(reason string) error {
	if err := creditNoteTransitions.Check("credit note", cn.Status, CreditNoteStatusVoid); err != nil {
		return err
	}
	if !cn.UsedAmount.IsZero() {
		return shared.NewInvalidTransitionError("partially used credit note", cn.Status, CreditNoteStatusVoid)
	}
	if reason == "" {
		return shared.NewValidationError("Void reason is required")
	}
	now := time.Now()
	cn.Status = CreditNoteStatusVoid
	cn.VoidReason = reason
	cn.VoidedAt = &now
	cn.UpdatedAt = now
	cn.AddDomainEvent(NewCreditNoteEvent(EventTypeCreditNoteVoided, cn, decimal.Zero, nil))
	return nil
}

// Claim applies min(remaining, balance due) to the invoice. The note becomes
// USED once nothing remains.
func (cn *CreditNote) Claim(inv *Invoice, appliedBy *uuid.UUID) (*CreditNoteApplication, error) {
	if cn.Status != CreditNoteStatusIssued {
		return nil, shared.NewInvalidTransitionError("credit note", cn.Status, CreditNoteStatusUsed)
	}
	if inv.CustomerID != cn.CustomerID {
		return nil, shared.NewValidationError("Credit note and invoice belong to different customers")
	}
	if !inv.Status.CanApplyPayment() {
		return nil, shared.NewInvalidTransitionError("invoice", inv.Status, InvoiceStatusPaid)
	}

	amount := decimal.Min(cn.Remaining(), inv.BalanceDue())
	if err := inv.ApplyCredit(amount); err != nil {
		return nil, err
	}

	now := time.Now()
	cn.UsedAmount = cn.UsedAmount.Add(amount)
	cn.UpdatedAt = now
	if cn.Remaining().IsZero() {
		cn.Status = CreditNoteStatusUsed
		cn.UsedAt = &now
	}
	invoiceID := inv.ID
	cn.AddDomainEvent(NewCreditNoteEvent(EventTypeCreditNoteApplied, cn, amount, &invoiceID))
	return &CreditNoteApplication{
		ID:           uuid.New(),
		CreditNoteID: cn.ID,
		InvoiceID:    inv.ID,
		Amount:       amount,
		AppliedBy:    appliedBy,
		CreatedAt:    now,
	}, nil
}
