package trade

import (
	"context"
	"time"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuotationService runs the quotation workflow up to conversion into a
// sales order
type QuotationService struct {
	scope  uow.TransactionScope
	ledger *inventoryapp.StockLedger
	cfg    config.WorkflowConfig
	now    func() time.Time
}

// NewQuotationService creates a new QuotationService
func NewQuotationService(scope uow.TransactionScope, ledger *inventoryapp.StockLedger, cfg config.WorkflowConfig) *QuotationService {
	return &QuotationService{scope: scope, ledger: ledger, cfg: cfg, now: time.Now}
}

// Get returns a quotation by ID
func (s *QuotationService) Get(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	q, err := s.scope.Reader().Quotations().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToQuotationResponse(q)
	return &resp, nil
}

// List returns quotations matching the filter
func (s *QuotationService) List(ctx context.Context, filter QuotationListFilter) ([]QuotationResponse, int64, error) {
	status := trade.QuotationStatus(filter.Status)
	if status != "" && !status.IsValid() {
		return nil, 0, shared.NewValidationError("Unknown quotation status " + filter.Status)
	}
	quotations, total, err := s.scope.Reader().Quotations().List(ctx, trade.QuotationFilter{
		Status:     status,
		CustomerID: filter.CustomerID,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]QuotationResponse, 0, len(quotations))
	for i := range quotations {
		out = append(out, ToQuotationResponse(&quotations[i]))
	}
	return out, total, nil
}

// Create drafts a quotation. Without an explicit valid-until date the
// configured validity period applies.
func (s *QuotationService) Create(ctx context.Context, actor shared.Actor, req CreateQuotationRequest) (*QuotationResponse, error) {
	if err := actor.Require(shared.CapQuotationCreate); err != nil {
		return nil, err
	}
	validUntil := s.now().Add(s.cfg.QuotationValidity)
	if req.ValidUntil != nil {
		validUntil = *req.ValidUntil
	}

	var q *trade.Quotation
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		if _, err := repos.Warehouses().FindByID(ctx, req.WarehouseID); err != nil {
			return asReferenceError(err, "warehouse", req.WarehouseID)
		}
		number, err := repos.Quotations().NextNumber(ctx)
		if err != nil {
			return err
		}
		q, err = trade.NewQuotation(number, req.CustomerID, req.CustomerName, req.WarehouseID, validUntil, req.Notes)
		if err != nil {
			return err
		}
		for _, item := range req.Items {
			if _, err := repos.Products().FindByID(ctx, item.ProductID); err != nil {
				return asReferenceError(err, "product", item.ProductID)
			}
			if _, err := q.AddItem(item.ProductID, item.Quantity, item.UnitPrice, item.DiscountPercent, item.TaxPercent); err != nil {
				return err
			}
		}
		return repos.Quotations().Save(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("quotation created",
		zap.String("quotation_id", q.ID.String()),
		zap.String("quotation_number", q.QuotationNumber),
		zap.Int("items", len(q.Items)),
	)
	resp := ToQuotationResponse(q)
	return &resp, nil
}

// Submit sends a draft for approval
func (s *QuotationService) Submit(ctx context.Context, actor shared.Actor, id uuid.UUID) (*QuotationResponse, error) {
	if err := actor.Require(shared.CapQuotationCreate); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "quotation submitted", func(q *trade.Quotation) error {
		return q.Submit()
	})
}

// Approve approves a submitted quotation
func (s *QuotationService) Approve(ctx context.Context, actor shared.Actor, id uuid.UUID, req ApproveQuotationRequest) (*QuotationResponse, error) {
	if err := actor.Require(shared.CapQuotationApprove); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "quotation approved", func(q *trade.Quotation) error {
		return q.Approve(actor.IDPtr(), req.Notes)
	})
}

// Reject rejects a submitted quotation with a configured reason code
func (s *QuotationService) Reject(ctx context.Context, actor shared.Actor, id uuid.UUID, req RejectQuotationRequest) (*QuotationResponse, error) {
	if err := actor.Require(shared.CapQuotationApprove); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "quotation rejected", func(q *trade.Quotation) error {
		return q.Reject(actor.IDPtr(), req.ReasonCode, s.cfg.RejectionReasons, req.Notes)
	})
}

// Convert turns an approved quotation into a PENDING sales order and
// reserves every line at the fulfilling warehouse. All lines are reserved or
// none: a shortfall on any line rolls the conversion back and the error
// lists every short product. Converting again returns the existing order.
func (s *QuotationService) Convert(ctx context.Context, actor shared.Actor, id uuid.UUID) (*SalesOrderResponse, error) {
	if err := actor.Require(shared.CapSalesOrderManage); err != nil {
		return nil, err
	}

	var order *trade.SalesOrder
	created := false
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		created = false
		q, err := repos.Quotations().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q.IsConverted() {
			order, err = repos.SalesOrders().FindByQuotationID(ctx, q.ID)
			return err
		}
		if err := q.CheckConvertible(s.now()); err != nil {
			return err
		}

		number, err := repos.SalesOrders().NextNumber(ctx)
		if err != nil {
			return err
		}
		order, err = trade.NewSalesOrderFromQuotation(number, q)
		if err != nil {
			return err
		}

		ref := inventory.NewReference(inventory.RefSalesOrder, order.ID)
		var shortfalls []shared.StockShortfall
		for _, item := range order.Items {
			_, err := s.ledger.Reserve(ctx, repos, inventoryapp.Posting{
				ProductID:   item.ProductID,
				WarehouseID: order.WarehouseID,
				Quantity:    item.Quantity,
				Ref:         ref,
				ActorID:     actor.IDPtr(),
			})
			if err == nil {
				continue
			}
			short := shared.Shortfalls(err)
			if len(short) == 0 {
				return err
			}
			shortfalls = append(shortfalls, short...)
		}
		if len(shortfalls) > 0 {
			return shared.NewInsufficientStockError(shortfalls...)
		}

		if err := q.MarkConverted(order.ID); err != nil {
			return err
		}
		if err := repos.SalesOrders().Save(ctx, order); err != nil {
			return err
		}
		created = true
		return repos.Quotations().Save(ctx, q)
	})
	if err != nil {
		if shared.ErrorCode(err) == shared.CodeInsufficientStock {
			logger.L(ctx).Warn("quotation conversion short of stock",
				zap.String("quotation_id", id.String()),
				zap.Int("short_lines", len(shared.Shortfalls(err))),
			)
		}
		return nil, err
	}
	if created {
		logger.L(ctx).Info("quotation converted to sales order",
			zap.String("quotation_id", id.String()),
			zap.String("sales_order_id", order.ID.String()),
			zap.String("order_number", order.OrderNumber),
		)
	}
	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

func (s *QuotationService) update(ctx context.Context, id uuid.UUID, msg string, fn func(*trade.Quotation) error) (*QuotationResponse, error) {
	var q *trade.Quotation
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		q, err = repos.Quotations().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(q); err != nil {
			return err
		}
		return repos.Quotations().Save(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info(msg,
		zap.String("quotation_id", q.ID.String()),
		zap.String("status", string(q.Status)),
	)
	resp := ToQuotationResponse(q)
	return &resp, nil
}
