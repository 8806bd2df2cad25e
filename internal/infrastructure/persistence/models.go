package persistence

import (
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
)

// Models lists every persisted type, parents before children
func Models() []any {
	return []any{
		&catalog.Product{},
		&catalog.Warehouse{},

		&inventory.StockRecord{},
		&inventory.StockMovement{},
		&inventory.Reservation{},
		&inventory.WarehouseTransfer{},

		&trade.Quotation{},
		&trade.QuotationItem{},
		&trade.SalesOrder{},
		&trade.SalesOrderItem{},
		&trade.PurchaseOrder{},
		&trade.PurchaseOrderItem{},
		&trade.GoodsReceipt{},
		&trade.GoodsReceiptItem{},
		&trade.SalesReturn{},
		&trade.SalesReturnItem{},

		&fulfillment.PickingList{},
		&fulfillment.PickingListItem{},
		&fulfillment.DeliveryOrder{},
		&fulfillment.DeliveryOrderItem{},

		&finance.Invoice{},
		&finance.InvoiceItem{},
		&finance.Payment{},
		&finance.CreditNote{},
		&finance.CreditNoteApplication{},
		&finance.FinanceAccount{},
		&finance.FinanceTransaction{},

		&documentSequence{},
		&shared.OutboxEntry{},
	}
}
