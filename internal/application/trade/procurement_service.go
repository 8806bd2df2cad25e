package trade

import (
	"context"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProcurementService handles purchase orders and the goods receipts posted
// against them
type ProcurementService struct {
	scope  uow.TransactionScope
	ledger *inventoryapp.StockLedger
}

// NewProcurementService creates a new ProcurementService
func NewProcurementService(scope uow.TransactionScope, ledger *inventoryapp.StockLedger) *ProcurementService {
	return &ProcurementService{scope: scope, ledger: ledger}
}

// GetPurchaseOrder returns a purchase order by ID
func (s *ProcurementService) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.scope.Reader().PurchaseOrders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// CreatePurchaseOrder opens a purchase order
func (s *ProcurementService) CreatePurchaseOrder(ctx context.Context, actor shared.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if err := actor.Require(shared.CapProcurementManage); err != nil {
		return nil, err
	}
	var po *trade.PurchaseOrder
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		if _, err := repos.Warehouses().FindByID(ctx, req.WarehouseID); err != nil {
			return asReferenceError(err, "warehouse", req.WarehouseID)
		}
		number, err := repos.PurchaseOrders().NextNumber(ctx)
		if err != nil {
			return err
		}
		po, err = trade.NewPurchaseOrder(number, req.SupplierID, req.SupplierName, req.WarehouseID)
		if err != nil {
			return err
		}
		for _, item := range req.Items {
			if _, err := repos.Products().FindByID(ctx, item.ProductID); err != nil {
				return asReferenceError(err, "product", item.ProductID)
			}
			if _, err := po.AddItem(item.ProductID, item.Quantity, item.UnitCost); err != nil {
				return err
			}
		}
		return repos.PurchaseOrders().Save(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("purchase order created",
		zap.String("purchase_order_id", po.ID.String()),
		zap.String("order_number", po.OrderNumber),
	)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// CancelPurchaseOrder cancels an order nothing was received against. A
// drafted goods receipt also blocks cancellation.
func (s *ProcurementService) CancelPurchaseOrder(ctx context.Context, actor shared.Actor, id uuid.UUID, req CancelPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if err := actor.Require(shared.CapProcurementManage); err != nil {
		return nil, err
	}
	var po *trade.PurchaseOrder
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		receipts, err := repos.GoodsReceipts().CountByPurchaseOrder(ctx, po.ID)
		if err != nil {
			return err
		}
		if receipts > 0 {
			return shared.NewInvalidTransitionError("purchase order with goods receipts", po.Status, trade.PurchaseOrderStatusCancelled)
		}
		if err := po.Cancel(req.Reason); err != nil {
			return err
		}
		return repos.PurchaseOrders().Save(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("purchase order cancelled", zap.String("purchase_order_id", po.ID.String()))
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// GetGoodsReceipt returns a goods receipt by ID
func (s *ProcurementService) GetGoodsReceipt(ctx context.Context, id uuid.UUID) (*GoodsReceiptResponse, error) {
	gr, err := s.scope.Reader().GoodsReceipts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToGoodsReceiptResponse(gr)
	return &resp, nil
}

// CreateGoodsReceipt drafts a receipt. Each line is checked against the
// quantity still outstanding on its purchase order line, and the order's
// state at this moment is stored on the receipt.
func (s *ProcurementService) CreateGoodsReceipt(ctx context.Context, actor shared.Actor, req CreateGoodsReceiptRequest) (*GoodsReceiptResponse, error) {
	if err := actor.Require(shared.CapProcurementManage); err != nil {
		return nil, err
	}
	lines := make([]trade.GoodsReceiptLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, trade.GoodsReceiptLine{
			PurchaseOrderItemID: item.PurchaseOrderItemID,
			Quantity:            item.Quantity,
			Condition:           inventory.StockCondition(item.Condition),
			BatchNumber:         item.BatchNumber,
		})
	}

	var gr *trade.GoodsReceipt
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, req.PurchaseOrderID)
		if err != nil {
			return asReferenceError(err, "purchase order", req.PurchaseOrderID)
		}
		number, err := repos.GoodsReceipts().NextNumber(ctx)
		if err != nil {
			return err
		}
		gr, err = trade.NewGoodsReceipt(number, po, lines, req.Notes)
		if err != nil {
			return err
		}
		return repos.GoodsReceipts().Save(ctx, gr)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("goods receipt drafted",
		zap.String("goods_receipt_id", gr.ID.String()),
		zap.String("purchase_order_id", gr.PurchaseOrderID.String()),
	)
	resp := ToGoodsReceiptResponse(gr)
	return &resp, nil
}

// ReceiveGoods posts a drafted receipt. The purchase order is locked and
// every line re-validated, since another receipt may have been posted after
// this one was drafted. Each line books a RECEIPT tagged with its condition.
func (s *ProcurementService) ReceiveGoods(ctx context.Context, actor shared.Actor, id uuid.UUID) (*GoodsReceiptResponse, error) {
	if err := actor.Require(shared.CapProcurementManage); err != nil {
		return nil, err
	}
	var gr *trade.GoodsReceipt
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		gr, err = repos.GoodsReceipts().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if gr.Status != trade.GoodsReceiptStatusDraft {
			return shared.NewInvalidTransitionError("goods receipt", gr.Status, trade.GoodsReceiptStatusReceived)
		}
		po, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, gr.PurchaseOrderID)
		if err != nil {
			return err
		}
		if err := gr.Revalidate(po); err != nil {
			return err
		}

		for _, item := range gr.Items {
			if _, err := s.ledger.Receive(ctx, repos, inventoryapp.Posting{
				ProductID:   item.ProductID,
				WarehouseID: gr.WarehouseID,
				Quantity:    item.QuantityReceived,
				Condition:   item.Condition,
				Ref:         gr.Reference(),
				ActorID:     actor.IDPtr(),
				Notes:       item.BatchNumber,
			}); err != nil {
				return err
			}
			if err := po.Receive(item.PurchaseOrderItemID, item.QuantityReceived); err != nil {
				return err
			}
		}
		if err := gr.MarkReceived(actor.IDPtr()); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Save(ctx, po); err != nil {
			return err
		}
		return repos.GoodsReceipts().Save(ctx, gr)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("goods received",
		zap.String("goods_receipt_id", gr.ID.String()),
		zap.String("receipt_number", gr.ReceiptNumber),
		zap.Int("lines", len(gr.Items)),
	)
	resp := ToGoodsReceiptResponse(gr)
	return &resp, nil
}
