// Package uow is the unit of work used by every application service.
package uow

import (
	"context"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/trade"
)

// TransactionScope runs a function inside one database transaction.
// When fn returns an error the transaction is rolled back and nothing it
// wrote (balances, ledger lines, outbox entries) is kept.
type TransactionScope interface {
	// Execute runs fn within a transaction. fn may be invoked more than once
	// when the scope retries contended transactions, so it must load every
	// aggregate it changes through repos.
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	// Reader returns repositories bound to no transaction, for queries
	Reader() Repositories
}

// Repositories gives access to every repository. All repositories returned
// by one instance share the same underlying transaction.
//
// Row locks taken through the *ForUpdate methods are held until the
// transaction ends.
type Repositories interface {
	StockRecords() inventory.StockRecordRepository
	StockMovements() inventory.StockMovementRepository
	Reservations() inventory.ReservationRepository
	Transfers() inventory.WarehouseTransferRepository

	Quotations() trade.QuotationRepository
	SalesOrders() trade.SalesOrderRepository
	PurchaseOrders() trade.PurchaseOrderRepository
	GoodsReceipts() trade.GoodsReceiptRepository
	SalesReturns() trade.SalesReturnRepository

	PickingLists() fulfillment.PickingListRepository
	DeliveryOrders() fulfillment.DeliveryOrderRepository

	Invoices() finance.InvoiceRepository
	Payments() finance.PaymentRepository
	CreditNotes() finance.CreditNoteRepository
	FinanceAccounts() finance.FinanceAccountRepository
	FinanceTransactions() finance.FinanceTransactionRepository

	Products() catalog.ProductRepository
	Warehouses() catalog.WarehouseRepository
}
