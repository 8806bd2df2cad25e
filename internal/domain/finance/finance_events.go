package finance

import (
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeInvoice        = "Invoice"
	AggregateTypeCreditNote     = "CreditNote"
	AggregateTypeFinanceAccount = "FinanceAccount"
)

// Event type constants
const (
	EventTypeInvoiceCreated         = "InvoiceCreated"
	EventTypeInvoicePaymentRecorded = "InvoicePaymentRecorded"
	EventTypeInvoicePaid            = "InvoicePaid"
	EventTypeInvoiceOverdue         = "InvoiceOverdue"

	EventTypeCreditNoteDrafted = "CreditNoteDrafted"
	EventTypeCreditNoteIssued  = "CreditNoteIssued"
	EventTypeCreditNoteApplied = "CreditNoteApplied"
	EventTypeCreditNoteVoided  = "CreditNoteVoided"

	EventTypeFinanceTransactionRecorded = "FinanceTransactionRecorded"
)

// InvoiceEvent is raised on invoice creation, payment and status changes
type InvoiceEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	DeliveryOrderID uuid.UUID       `json:"delivery_order_id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	Status          InvoiceStatus   `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	Amount          decimal.Decimal `json:"amount"`
}

// NewInvoiceEvent creates an InvoiceEvent of the given type
func NewInvoiceEvent(eventType string, inv *Invoice, amount decimal.Decimal) *InvoiceEvent {
	return &InvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		DeliveryOrderID: inv.DeliveryOrderID,
		CustomerID:      inv.CustomerID,
		Status:          inv.Status,
		TotalAmount:     inv.TotalAmount,
		TotalPaid:       inv.TotalPaid,
		Amount:          amount,
	}
}

// CreditNoteEvent is raised on credit note transitions
type CreditNoteEvent struct {
	shared.BaseDomainEvent
	CreditNoteID  uuid.UUID        `json:"credit_note_id"`
	SalesReturnID uuid.UUID        `json:"sales_return_id"`
	CustomerID    uuid.UUID        `json:"customer_id"`
	Status        CreditNoteStatus `json:"status"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	UsedAmount    decimal.Decimal  `json:"used_amount"`
	Amount        decimal.Decimal  `json:"amount"`
	InvoiceID     *uuid.UUID       `json:"invoice_id,omitempty"`
}

// NewCreditNoteEvent creates a CreditNoteEvent of the given type
func NewCreditNoteEvent(eventType string, cn *CreditNote, amount decimal.Decimal, invoiceID *uuid.UUID) *CreditNoteEvent {
	return &CreditNoteEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCreditNote, cn.ID),
		CreditNoteID:    cn.ID,
		SalesReturnID:   cn.SalesReturnID,
		CustomerID:      cn.CustomerID,
		Status:          cn.Status,
		TotalAmount:     cn.TotalAmount,
		UsedAmount:      cn.UsedAmount,
		Amount:          amount,
		InvoiceID:       invoiceID,
	}
}

// FinanceTransactionRecordedEvent is raised for every account ledger entry
type FinanceTransactionRecordedEvent struct {
	shared.BaseDomainEvent
	AccountID     uuid.UUID         `json:"account_id"`
	TransactionID uuid.UUID         `json:"transaction_id"`
	Sequence      int64             `json:"sequence"`
	Direction     Direction         `json:"direction"`
	Amount        decimal.Decimal   `json:"amount"`
	BalanceAfter  decimal.Decimal   `json:"balance_after"`
	SourceType    TransactionSource `json:"source_type"`
}

// NewFinanceTransactionRecordedEvent creates a FinanceTransactionRecordedEvent
func NewFinanceTransactionRecordedEvent(a *FinanceAccount, tx *FinanceTransaction) *FinanceTransactionRecordedEvent {
	return &FinanceTransactionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFinanceTransactionRecorded, AggregateTypeFinanceAccount, a.ID),
		AccountID:       a.ID,
		TransactionID:   tx.ID,
		Sequence:        tx.Sequence,
		Direction:       tx.Direction,
		Amount:          tx.Amount,
		BalanceAfter:    tx.BalanceAfter,
		SourceType:      tx.SourceType,
	}
}
