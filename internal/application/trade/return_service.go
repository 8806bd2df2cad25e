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

// ReturnService handles customer returns of shipped goods
type ReturnService struct {
	scope  uow.TransactionScope
	ledger *inventoryapp.StockLedger
}

// NewReturnService creates a new ReturnService
func NewReturnService(scope uow.TransactionScope, ledger *inventoryapp.StockLedger) *ReturnService {
	return &ReturnService{scope: scope, ledger: ledger}
}

// Get returns a sales return by ID
func (s *ReturnService) Get(ctx context.Context, id uuid.UUID) (*SalesReturnResponse, error) {
	sr, err := s.scope.Reader().SalesReturns().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSalesReturnResponse(sr)
	return &resp, nil
}

// Create opens a return. The order is locked so that concurrent returns
// cannot together exceed the shipped quantity.
func (s *ReturnService) Create(ctx context.Context, actor shared.Actor, req CreateSalesReturnRequest) (*SalesReturnResponse, error) {
	if err := actor.Require(shared.CapSalesReturnCreate); err != nil {
		return nil, err
	}
	lines := make([]trade.SalesReturnLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, trade.SalesReturnLine{
			SalesOrderItemID: item.SalesOrderItemID,
			Quantity:         item.Quantity,
			Condition:        inventory.StockCondition(item.Condition),
		})
	}

	var sr *trade.SalesReturn
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		order, err := repos.SalesOrders().FindByIDForUpdate(ctx, req.SalesOrderID)
		if err != nil {
			return asReferenceError(err, "sales order", req.SalesOrderID)
		}
		returned, err := repos.SalesReturns().ReturnedQuantities(ctx, order.ID)
		if err != nil {
			return err
		}
		number, err := repos.SalesReturns().NextNumber(ctx)
		if err != nil {
			return err
		}
		sr, err = trade.NewSalesReturn(number, order, lines, returned, req.Reason)
		if err != nil {
			return err
		}
		return repos.SalesReturns().Save(ctx, sr)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("sales return created",
		zap.String("sales_return_id", sr.ID.String()),
		zap.String("sales_order_id", sr.SalesOrderID.String()),
		zap.String("total_amount", sr.TotalAmount.String()),
	)
	resp := ToSalesReturnResponse(sr)
	return &resp, nil
}

// Approve accepts the goods back into the order's warehouse. GOOD lines
// become available again; DAMAGED lines arrive as unusable stock.
func (s *ReturnService) Approve(ctx context.Context, actor shared.Actor, id uuid.UUID) (*SalesReturnResponse, error) {
	if err := actor.Require(shared.CapSalesReturnApprove); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "sales return approved", func(ctx context.Context, repos uow.Repositories, sr *trade.SalesReturn) error {
		if err := sr.Approve(actor.IDPtr()); err != nil {
			return err
		}
		for _, item := range sr.Items {
			if _, err := s.ledger.ReturnIn(ctx, repos, inventoryapp.Posting{
				ProductID:   item.ProductID,
				WarehouseID: sr.WarehouseID,
				Quantity:    item.Quantity,
				Condition:   item.Condition,
				Ref:         sr.Reference(),
				ActorID:     actor.IDPtr(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reject refuses a pending return; no stock moves
func (s *ReturnService) Reject(ctx context.Context, actor shared.Actor, id uuid.UUID, req RejectSalesReturnRequest) (*SalesReturnResponse, error) {
	if err := actor.Require(shared.CapSalesReturnApprove); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "sales return rejected", func(_ context.Context, _ uow.Repositories, sr *trade.SalesReturn) error {
		return sr.Reject(req.Reason)
	})
}

func (s *ReturnService) update(ctx context.Context, id uuid.UUID, msg string, fn func(context.Context, uow.Repositories, *trade.SalesReturn) error) (*SalesReturnResponse, error) {
	var sr *trade.SalesReturn
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		sr, err = repos.SalesReturns().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, sr); err != nil {
			return err
		}
		return repos.SalesReturns().Save(ctx, sr)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info(msg,
		zap.String("sales_return_id", sr.ID.String()),
		zap.String("status", string(sr.Status)),
	)
	resp := ToSalesReturnResponse(sr)
	return &resp, nil
}
