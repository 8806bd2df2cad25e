package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceFilter selects invoices for listing
type InvoiceFilter struct {
	Status     InvoiceStatus
	CustomerID *uuid.UUID
	Page       int
	PageSize   int
}

// InvoiceRepository defines persistence for invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByDeliveryOrderID(ctx context.Context, deliveryOrderID uuid.UUID) (*Invoice, error)
	// FindOverdueCandidates returns ids of UNPAID invoices due before asOf
	FindOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error)
	List(ctx context.Context, filter InvoiceFilter) ([]Invoice, int64, error)
	Save(ctx context.Context, invoice *Invoice) error
	NextNumber(ctx context.Context) (string, error)
}

// PaymentRepository stores immutable payment records
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)
}

// CreditNoteRepository defines persistence for credit notes
type CreditNoteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CreditNote, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*CreditNote, error)
	FindBySalesReturnID(ctx context.Context, salesReturnID uuid.UUID) (*CreditNote, error)
	Save(ctx context.Context, note *CreditNote) error
	NextNumber(ctx context.Context) (string, error)
	CreateApplication(ctx context.Context, app *CreditNoteApplication) error
	ListApplications(ctx context.Context, creditNoteID uuid.UUID) ([]CreditNoteApplication, error)
}

// TransactionFilter selects finance transactions of one account
type TransactionFilter struct {
	AccountID uuid.UUID
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// FinanceAccountRepository defines persistence for finance accounts
type FinanceAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FinanceAccount, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*FinanceAccount, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Save persists the account version-checked and inserts its pending
	// transactions
	Save(ctx context.Context, account *FinanceAccount) error
}

// FinanceTransactionRepository reads the append-only account ledger
type FinanceTransactionRepository interface {
	// FindByAccount returns every transaction of the account in sequence order
	FindByAccount(ctx context.Context, accountID uuid.UUID) ([]FinanceTransaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]FinanceTransaction, int64, error)
}
