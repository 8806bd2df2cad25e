package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements uow.TransactionScope with GORM transactions.
// On PostgreSQL every transaction bounds its row-lock waits with
// lock_timeout, so a contended lock fails with CONTENDED instead of blocking.
type GormTransactionScope struct {
	db          *gorm.DB
	outbox      shared.OutboxEventSaver
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope. outbox may be
// nil, in which case domain events are dropped.
func NewGormTransactionScope(db *gorm.DB, outbox shared.OutboxEventSaver, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox, lockTimeout: lockTimeout}
}

// Execute runs fn within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(ctx, &gormRepositories{db: tx, outbox: s.outbox})
	})
	return TranslateError(err)
}

// Reader returns repositories bound to no transaction
func (s *GormTransactionScope) Reader() uow.Repositories {
	return &gormRepositories{db: s.db, outbox: s.outbox}
}

// gormRepositories hands out repositories sharing one *gorm.DB
type gormRepositories struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

func (r *gormRepositories) StockRecords() inventory.StockRecordRepository {
	return NewGormStockRecordRepository(r.db, r.outbox)
}

func (r *gormRepositories) StockMovements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.db)
}

func (r *gormRepositories) Reservations() inventory.ReservationRepository {
	return NewGormReservationRepository(r.db)
}

func (r *gormRepositories) Transfers() inventory.WarehouseTransferRepository {
	return NewGormWarehouseTransferRepository(r.db, r.outbox)
}

func (r *gormRepositories) Quotations() trade.QuotationRepository {
	return NewGormQuotationRepository(r.db, r.outbox)
}

func (r *gormRepositories) SalesOrders() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.db, r.outbox)
}

func (r *gormRepositories) PurchaseOrders() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.db, r.outbox)
}

func (r *gormRepositories) GoodsReceipts() trade.GoodsReceiptRepository {
	return NewGormGoodsReceiptRepository(r.db, r.outbox)
}

func (r *gormRepositories) SalesReturns() trade.SalesReturnRepository {
	return NewGormSalesReturnRepository(r.db, r.outbox)
}

func (r *gormRepositories) PickingLists() fulfillment.PickingListRepository {
	return NewGormPickingListRepository(r.db, r.outbox)
}

func (r *gormRepositories) DeliveryOrders() fulfillment.DeliveryOrderRepository {
	return NewGormDeliveryOrderRepository(r.db, r.outbox)
}

func (r *gormRepositories) Invoices() finance.InvoiceRepository {
	return NewGormInvoiceRepository(r.db, r.outbox)
}

func (r *gormRepositories) Payments() finance.PaymentRepository {
	return NewGormPaymentRepository(r.db)
}

func (r *gormRepositories) CreditNotes() finance.CreditNoteRepository {
	return NewGormCreditNoteRepository(r.db, r.outbox)
}

func (r *gormRepositories) FinanceAccounts() finance.FinanceAccountRepository {
	return NewGormFinanceAccountRepository(r.db, r.outbox)
}

func (r *gormRepositories) FinanceTransactions() finance.FinanceTransactionRepository {
	return NewGormFinanceTransactionRepository(r.db)
}

func (r *gormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *gormRepositories) Warehouses() catalog.WarehouseRepository {
	return NewGormWarehouseRepository(r.db)
}

var (
	_ uow.TransactionScope = (*GormTransactionScope)(nil)
	_ uow.Repositories     = (*gormRepositories)(nil)
)
