package persistence

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements finance.InvoiceRepository
type GormInvoiceRepository struct {
	store
}

// NewGormInvoiceRepository creates an invoice repository on db
func NewGormInvoiceRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormInvoiceRepository {
	return &GormInvoiceRepository{store{db: db, outbox: outbox}}
}

// FindByID finds an invoice with its items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	return loadByID[finance.Invoice](r.conn(ctx), "invoice", id, "Items")
}

// FindByIDForUpdate finds an invoice with its items and locks it
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	return loadByID[finance.Invoice](forUpdate(r.conn(ctx)), "invoice", id, "Items")
}

// FindByDeliveryOrderID finds the invoice raised for a delivery order
func (r *GormInvoiceRepository) FindByDeliveryOrderID(ctx context.Context, deliveryOrderID uuid.UUID) (*finance.Invoice, error) {
	var inv finance.Invoice
	if err := r.conn(ctx).
		Preload("Items").
		Where("delivery_order_id = ?", deliveryOrderID).
		First(&inv).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &inv, nil
}

// FindOverdueCandidates returns ids of unpaid invoices whose due date is
// before asOf, oldest due date first
func (r *GormInvoiceRepository) FindOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.conn(ctx).Model(&finance.Invoice{}).
		Where("status = ? AND due_date < ?", finance.InvoiceStatusUnpaid, asOf).
		Order("due_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, TranslateError(err)
	}
	return ids, nil
}

// List returns invoices matching the filter, newest first
func (r *GormInvoiceRepository) List(ctx context.Context, filter finance.InvoiceFilter) ([]finance.Invoice, int64, error) {
	q := r.conn(ctx).Model(&finance.Invoice{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var list []finance.Invoice
	if err := paginate(q, filter.Page, filter.PageSize).
		Preload("Items").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return list, total, nil
}

// Save persists the invoice, its items and its events
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *finance.Invoice) error {
	if err := r.saveAggregate(ctx, invoice); err != nil {
		return err
	}
	if err := saveChildren(ctx, r.db, invoice.Items); err != nil {
		return err
	}
	return r.publish(ctx, invoice)
}

// NextNumber allocates the next invoice number
func (r *GormInvoiceRepository) NextNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, prefixInvoice)
}

// GormPaymentRepository implements finance.PaymentRepository
type GormPaymentRepository struct {
	store
}

// NewGormPaymentRepository creates a payment repository on db
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{store{db: db}}
}

// Create inserts a payment record
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	return TranslateError(r.conn(ctx).Create(payment).Error)
}

// ListByInvoice returns payments of an invoice in the order they were paid
func (r *GormPaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]finance.Payment, error) {
	var payments []finance.Payment
	if err := r.conn(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at ASC").
		Find(&payments).Error; err != nil {
		return nil, TranslateError(err)
	}
	return payments, nil
}

// GormCreditNoteRepository implements finance.CreditNoteRepository
type GormCreditNoteRepository struct {
	store
}

// NewGormCreditNoteRepository creates a credit note repository on db
func NewGormCreditNoteRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormCreditNoteRepository {
	return &GormCreditNoteRepository{store{db: db, outbox: outbox}}
}

// FindByID finds a credit note
func (r *GormCreditNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.CreditNote, error) {
	return loadByID[finance.CreditNote](r.conn(ctx), "credit note", id)
}

// FindByIDForUpdate finds a credit note and locks it
func (r *GormCreditNoteRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.CreditNote, error) {
	return loadByID[finance.CreditNote](forUpdate(r.conn(ctx)), "credit note", id)
}

// FindBySalesReturnID finds the credit note drafted for a return
func (r *GormCreditNoteRepository) FindBySalesReturnID(ctx context.Context, salesReturnID uuid.UUID) (*finance.CreditNote, error) {
	var note finance.CreditNote
	if err := r.conn(ctx).Where("sales_return_id = ?", salesReturnID).First(&note).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &note, nil
}

// Save persists the credit note and its events
func (r *GormCreditNoteRepository) Save(ctx context.Context, note *finance.CreditNote) error {
	if err := r.saveAggregate(ctx, note); err != nil {
		return err
	}
	return r.publish(ctx, note)
}

// NextNumber allocates the next credit note number
func (r *GormCreditNoteRepository) NextNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, prefixCreditNote)
}

// CreateApplication records a credit note settling an invoice
func (r *GormCreditNoteRepository) CreateApplication(ctx context.Context, app *finance.CreditNoteApplication) error {
	return TranslateError(r.conn(ctx).Create(app).Error)
}

// ListApplications returns where a credit note was used
func (r *GormCreditNoteRepository) ListApplications(ctx context.Context, creditNoteID uuid.UUID) ([]finance.CreditNoteApplication, error) {
	var apps []finance.CreditNoteApplication
	if err := r.conn(ctx).
		Where("credit_note_id = ?", creditNoteID).
		Order("created_at ASC").
		Find(&apps).Error; err != nil {
		return nil, TranslateError(err)
	}
	return apps, nil
}

// GormFinanceAccountRepository implements finance.FinanceAccountRepository
type GormFinanceAccountRepository struct {
	store
}

// NewGormFinanceAccountRepository creates a finance account repository on db
func NewGormFinanceAccountRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormFinanceAccountRepository {
	return &GormFinanceAccountRepository{store{db: db, outbox: outbox}}
}

// FindByID finds an account
func (r *GormFinanceAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FinanceAccount, error) {
	return loadByID[finance.FinanceAccount](r.conn(ctx), "finance account", id)
}

// FindByIDForUpdate finds an account and locks it
func (r *GormFinanceAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.FinanceAccount, error) {
	return loadByID[finance.FinanceAccount](forUpdate(r.conn(ctx)), "finance account", id)
}

// ExistsByCode reports whether an account code is taken
func (r *GormFinanceAccountRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&finance.FinanceAccount{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, TranslateError(err)
	}
	return count > 0, nil
}

// Save persists the account version-checked and appends its pending
// transactions
func (r *GormFinanceAccountRepository) Save(ctx context.Context, account *finance.FinanceAccount) error {
	if err := r.saveAggregate(ctx, account); err != nil {
		return err
	}
	if pending := account.PendingTransactions(); len(pending) > 0 {
		if err := r.conn(ctx).Create(pending).Error; err != nil {
			return TranslateError(err)
		}
		account.ClearPendingTransactions()
	}
	return r.publish(ctx, account)
}

// GormFinanceTransactionRepository reads the account ledger
type GormFinanceTransactionRepository struct {
	store
}

// NewGormFinanceTransactionRepository creates a transaction repository on db
func NewGormFinanceTransactionRepository(db *gorm.DB) *GormFinanceTransactionRepository {
	return &GormFinanceTransactionRepository{store{db: db}}
}

// FindByAccount returns every transaction of the account in sequence order
func (r *GormFinanceTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID) ([]finance.FinanceTransaction, error) {
	var txs []finance.FinanceTransaction
	if err := r.conn(ctx).
		Where("account_id = ?", accountID).
		Order("sequence ASC").
		Find(&txs).Error; err != nil {
		return nil, TranslateError(err)
	}
	return txs, nil
}

// List returns a page of the account ledger, newest first
func (r *GormFinanceTransactionRepository) List(ctx context.Context, filter finance.TransactionFilter) ([]finance.FinanceTransaction, int64, error) {
	q := r.conn(ctx).Model(&finance.FinanceTransaction{}).Where("account_id = ?", filter.AccountID)
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var txs []finance.FinanceTransaction
	if err := paginate(q, filter.Page, filter.PageSize).
		Order("sequence DESC").
		Find(&txs).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return txs, total, nil
}
