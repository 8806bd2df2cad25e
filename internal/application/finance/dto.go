package finance

import (
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Invoice =====================

// CreateInvoiceRequest bills a delivered delivery order
type CreateInvoiceRequest struct {
	DeliveryOrderID uuid.UUID `json:"delivery_order_id" binding:"required"`
	PONumber        string    `json:"po_number" binding:"max=100"`
}

// RecordPaymentRequest books money received against an invoice
type RecordPaymentRequest struct {
	Amount           decimal.Decimal `json:"amount" binding:"required,decimal_positive"`
	Method           string          `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CARD CHEQUE"`
	FinanceAccountID *uuid.UUID      `json:"finance_account_id"`
}

// InvoiceItemResponse represents an invoice line
type InvoiceItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID              uuid.UUID             `json:"id"`
	InvoiceNumber   string                `json:"invoice_number"`
	DeliveryOrderID uuid.UUID             `json:"delivery_order_id"`
	SalesOrderID    uuid.UUID             `json:"sales_order_id"`
	CustomerID      uuid.UUID             `json:"customer_id"`
	PONumber        string                `json:"po_number,omitempty"`
	Status          string                `json:"status"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	TotalPaid       decimal.Decimal       `json:"total_paid"`
	CreditedAmount  decimal.Decimal       `json:"credited_amount"`
	BalanceDue      decimal.Decimal       `json:"balance_due"`
	DueDate         time.Time             `json:"due_date"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	OverdueAt       *time.Time            `json:"overdue_at,omitempty"`
	Items           []InvoiceItemResponse `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
	Version         int                   `json:"version"`
}

// ToInvoiceResponse converts a domain invoice
func ToInvoiceResponse(inv *finance.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, InvoiceItemResponse{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, Amount: it.Amount})
	}
	return InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		DeliveryOrderID: inv.DeliveryOrderID,
		SalesOrderID:    inv.SalesOrderID,
		CustomerID:      inv.CustomerID,
		PONumber:        inv.PONumber,
		Status:          string(inv.Status),
		TotalAmount:     inv.TotalAmount,
		TotalPaid:       inv.TotalPaid,
		CreditedAmount:  inv.CreditedAmount,
		BalanceDue:      inv.BalanceDue(),
		DueDate:         inv.DueDate,
		PaidAt:          inv.PaidAt,
		OverdueAt:       inv.OverdueAt,
		Items:           items,
		CreatedAt:       inv.CreatedAt,
		Version:         inv.Version,
	}
}

// PaymentResponse represents a recorded payment
type PaymentResponse struct {
	ID               uuid.UUID       `json:"id"`
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	Method           string          `json:"method"`
	FinanceAccountID *uuid.UUID      `json:"finance_account_id,omitempty"`
	PaidAt           time.Time       `json:"paid_at"`
	RecordedBy       *uuid.UUID      `json:"recorded_by,omitempty"`
}

// ToPaymentResponse converts a domain payment
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		InvoiceID:        p.InvoiceID,
		AmountPaid:       p.AmountPaid,
		Method:           string(p.Method),
		FinanceAccountID: p.FinanceAccountID,
		PaidAt:           p.PaidAt,
		RecordedBy:       p.RecordedBy,
	}
}

// RecordPaymentResponse carries the updated invoice with the new payment
type RecordPaymentResponse struct {
	Invoice InvoiceResponse `json:"invoice"`
	Payment PaymentResponse `json:"payment"`
}

// InvoiceListFilter represents filter options for the invoice list
type InvoiceListFilter struct {
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OverdueRunResult summarizes one overdue batch
type OverdueRunResult struct {
	Checked int `json:"checked"`
	Marked  int `json:"marked"`
	Failed  int `json:"failed"`
}

// ===================== Credit Note =====================

// CreateCreditNoteRequest drafts the credit note of an approved return
type CreateCreditNoteRequest struct {
	SalesReturnID uuid.UUID `json:"sales_return_id" binding:"required"`
}

// ClaimCreditNoteRequest applies a credit note to an invoice
type ClaimCreditNoteRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
}

// VoidCreditNoteRequest carries a mandatory reason
type VoidCreditNoteRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CreditNoteResponse represents a credit note
type CreditNoteResponse struct {
	ID               uuid.UUID       `json:"id"`
	CreditNoteNumber string          `json:"credit_note_number"`
	SalesReturnID    uuid.UUID       `json:"sales_return_id"`
	SalesOrderID     uuid.UUID       `json:"sales_order_id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	Status           string          `json:"status"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	UsedAmount       decimal.Decimal `json:"used_amount"`
	Remaining        decimal.Decimal `json:"remaining"`
	IssuedAt         *time.Time      `json:"issued_at,omitempty"`
	UsedAt           *time.Time      `json:"used_at,omitempty"`
	VoidedAt         *time.Time      `json:"voided_at,omitempty"`
	VoidReason       string          `json:"void_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Version          int             `json:"version"`
}

// ToCreditNoteResponse converts a domain credit note
func ToCreditNoteResponse(cn *finance.CreditNote) CreditNoteResponse {
	return CreditNoteResponse{
		ID:               cn.ID,
		CreditNoteNumber: cn.CreditNoteNumber,
		SalesReturnID:    cn.SalesReturnID,
		SalesOrderID:     cn.SalesOrderID,
		CustomerID:       cn.CustomerID,
		Status:           string(cn.Status),
		TotalAmount:      cn.TotalAmount,
		UsedAmount:       cn.UsedAmount,
		Remaining:        cn.Remaining(),
		IssuedAt:         cn.IssuedAt,
		UsedAt:           cn.UsedAt,
		VoidedAt:         cn.VoidedAt,
		VoidReason:       cn.VoidReason,
		CreatedAt:        cn.CreatedAt,
		Version:          cn.Version,
	}
}

// ClaimCreditNoteResponse carries both documents after a claim
type ClaimCreditNoteResponse struct {
	CreditNote    CreditNoteResponse `json:"credit_note"`
	Invoice       InvoiceResponse    `json:"invoice"`
	AppliedAmount decimal.Decimal    `json:"applied_amount"`
}

// ===================== Finance Account =====================

// CreateFinanceAccountRequest opens a cash box or bank account
type CreateFinanceAccountRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=200"`
	Type string `json:"type" binding:"required,oneof=CASH BANK"`
}

// RecordExpenseRequest takes money out of an account
type RecordExpenseRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required,decimal_positive"`
	Notes  string          `json:"notes" binding:"required,max=1000"`
}

// AdjustAccountRequest corrects an account balance by a signed delta
type AdjustAccountRequest struct {
	Delta  decimal.Decimal `json:"delta" binding:"required"`
	Reason string          `json:"reason" binding:"required,max=500"`
}

// FinanceAccountResponse represents a finance account
type FinanceAccountResponse struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Balance      decimal.Decimal `json:"balance"`
	LastSequence int64           `json:"last_sequence"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	Version      int             `json:"version"`
}

// ToFinanceAccountResponse converts a domain finance account
func ToFinanceAccountResponse(a *finance.FinanceAccount) FinanceAccountResponse {
	return FinanceAccountResponse{
		ID:           a.ID,
		Code:         a.Code,
		Name:         a.Name,
		Type:         string(a.Type),
		Balance:      a.Balance,
		LastSequence: a.LastSequence,
		Active:       a.Active,
		CreatedAt:    a.CreatedAt,
		Version:      a.Version,
	}
}

// FinanceTransactionResponse represents one account ledger entry
type FinanceTransactionResponse struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Sequence     int64           `json:"sequence"`
	Direction    string          `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	SourceType   string          `json:"source_type"`
	SourceID     *uuid.UUID      `json:"source_id,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToFinanceTransactionResponse converts a domain finance transaction
func ToFinanceTransactionResponse(tx *finance.FinanceTransaction) FinanceTransactionResponse {
	return FinanceTransactionResponse{
		ID:           tx.ID,
		AccountID:    tx.AccountID,
		Sequence:     tx.Sequence,
		Direction:    string(tx.Direction),
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		SourceType:   string(tx.SourceType),
		SourceID:     tx.SourceID,
		Notes:        tx.Notes,
		ActorID:      tx.ActorID,
		CreatedAt:    tx.CreatedAt,
	}
}

// TransactionListFilter represents filter options for an account's ledger
type TransactionListFilter struct {
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ReconcileAccountResponse reports the result of replaying an account ledger
type ReconcileAccountResponse struct {
	AccountID    uuid.UUID       `json:"account_id"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions int             `json:"transactions"`
	OK           bool            `json:"ok"`
	Error        string          `json:"error,omitempty"`
}
