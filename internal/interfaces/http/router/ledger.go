package router

import (
	"github.com/erp/stockledger/internal/interfaces/http/handler"
)

// LedgerHandlers holds one handler per resource. A nil Outbox leaves the
// admin routes unregistered.
type LedgerHandlers struct {
	Catalog        *handler.CatalogHandler
	Stock          *handler.StockHandler
	Transfer       *handler.TransferHandler
	Quotation      *handler.QuotationHandler
	SalesOrder     *handler.SalesOrderHandler
	Fulfillment    *handler.FulfillmentHandler
	Procurement    *handler.ProcurementHandler
	SalesReturn    *handler.SalesReturnHandler
	Invoice        *handler.InvoiceHandler
	CreditNote     *handler.CreditNoteHandler
	FinanceAccount *handler.FinanceAccountHandler
	Outbox         *handler.OutboxHandler
}

// RegisterLedgerRoutes adds every ledger domain group to the router
func RegisterLedgerRoutes(r *Router, h LedgerHandlers) *Router {
	for _, g := range LedgerGroups(h) {
		r.Register(g)
	}
	return r
}

// LedgerGroups builds the domain groups served under /api/<version>
func LedgerGroups(h LedgerHandlers) []*DomainGroup {
	products := NewDomainGroup("products", "/products").
		POST("", h.Catalog.CreateProduct).
		GET("", h.Catalog.ListProducts).
		GET("/:id", h.Catalog.GetProduct)

	warehouses := NewDomainGroup("warehouses", "/warehouses").
		POST("", h.Catalog.CreateWarehouse).
		GET("", h.Catalog.ListWarehouses).
		GET("/:id", h.Catalog.GetWarehouse)

	stock := NewDomainGroup("stock", "/stock").
		GET("", h.Stock.List).
		GET("/movements", h.Stock.ListMovements).
		GET("/movements/export", h.Stock.ExportMovements).
		POST("/damages", h.Stock.ReportDamage).
		POST("/damage-reversals", h.Stock.ReverseDamage).
		POST("/disposals", h.Stock.Dispose).
		POST("/adjustments", h.Stock.Adjust).
		PUT("/visibility", h.Stock.SetVisibility).
		POST("/reconcile", h.Stock.Reconcile)

	transfers := NewDomainGroup("transfers", "/transfers").
		POST("", h.Transfer.Request).
		GET("", h.Transfer.List).
		GET("/:id", h.Transfer.Get).
		POST("/:id/approve", h.Transfer.Approve).
		POST("/:id/deliver", h.Transfer.Deliver).
		POST("/:id/receive", h.Transfer.Receive).
		POST("/:id/cancel", h.Transfer.Cancel)

	quotations := NewDomainGroup("quotations", "/quotations").
		POST("", h.Quotation.Create).
		GET("", h.Quotation.List).
		GET("/:id", h.Quotation.Get).
		POST("/:id/submit", h.Quotation.Submit).
		POST("/:id/approve", h.Quotation.Approve).
		POST("/:id/reject", h.Quotation.Reject).
		POST("/:id/convert", h.Quotation.Convert)

	salesOrders := NewDomainGroup("sales-orders", "/sales-orders").
		GET("", h.SalesOrder.List).
		GET("/:id", h.SalesOrder.Get).
		POST("/:id/cancel", h.SalesOrder.Cancel)

	picking := NewDomainGroup("picking-lists", "/picking-lists").
		POST("", h.Fulfillment.CreatePickingList).
		GET("/:id", h.Fulfillment.GetPickingList).
		POST("/items/:item_id/picks", h.Fulfillment.RecordPick)

	deliveries := NewDomainGroup("delivery-orders", "/delivery-orders").
		GET("", h.Fulfillment.ListDeliveryOrders).
		GET("/:id", h.Fulfillment.GetDeliveryOrder).
		PUT("/:id/status", h.Fulfillment.UpdateDeliveryStatus)

	purchaseOrders := NewDomainGroup("purchase-orders", "/purchase-orders").
		POST("", h.Procurement.CreatePurchaseOrder).
		GET("/:id", h.Procurement.GetPurchaseOrder).
		POST("/:id/cancel", h.Procurement.CancelPurchaseOrder)

	goodsReceipts := NewDomainGroup("goods-receipts", "/goods-receipts").
		POST("", h.Procurement.CreateGoodsReceipt).
		GET("/:id", h.Procurement.GetGoodsReceipt).
		POST("/:id/receive", h.Procurement.ReceiveGoods)

	returns := NewDomainGroup("sales-returns", "/sales-returns").
		POST("", h.SalesReturn.Create).
		GET("/:id", h.SalesReturn.Get).
		POST("/:id/approve", h.SalesReturn.Approve).
		POST("/:id/reject", h.SalesReturn.Reject)

	invoices := NewDomainGroup("invoices", "/invoices").
		POST("", h.Invoice.Create).
		GET("", h.Invoice.List).
		GET("/:id", h.Invoice.Get).
		GET("/:id/payments", h.Invoice.ListPayments).
		POST("/:id/payments", h.Invoice.RecordPayment).
		POST("/:id/mark-overdue", h.Invoice.MarkOverdue)

	creditNotes := NewDomainGroup("credit-notes", "/credit-notes").
		POST("", h.CreditNote.Create).
		GET("/:id", h.CreditNote.Get).
		POST("/:id/issue", h.CreditNote.Issue).
		POST("/:id/claim", h.CreditNote.Claim).
		POST("/:id/void", h.CreditNote.Void)

	accounts := NewDomainGroup("finance-accounts", "/finance-accounts").
		POST("", h.FinanceAccount.Create).
		GET("/:id", h.FinanceAccount.Get).
		POST("/:id/expenses", h.FinanceAccount.RecordExpense).
		POST("/:id/adjustments", h.FinanceAccount.Adjust).
		POST("/:id/reconcile", h.FinanceAccount.Reconcile).
		GET("/:id/transactions", h.FinanceAccount.ListTransactions)

	groups := []*DomainGroup{
		products, warehouses, stock, transfers, quotations, salesOrders, picking,
		deliveries, purchaseOrders, goodsReceipts, returns, invoices, creditNotes, accounts,
	}

	if h.Outbox != nil {
		outbox := NewDomainGroup("outbox", "/outbox").
			GET("/stats", h.Outbox.GetStats).
			GET("/dead", h.Outbox.GetDeadLetterEntries).
			POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries).
			POST("/dead/:id/retry", h.Outbox.RetryDeadEntry).
			GET("/:id", h.Outbox.GetEntry)
		groups = append(groups, outbox)
	}
	return groups
}
