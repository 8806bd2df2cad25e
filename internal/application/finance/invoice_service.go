package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService bills delivered sales deliveries and books payments
type InvoiceService struct {
	scope uow.TransactionScope
	cfg   config.FinanceConfig
	now   func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(scope uow.TransactionScope, cfg config.FinanceConfig) *InvoiceService {
	return &InvoiceService{scope: scope, cfg: cfg, now: time.Now}
}

// Get returns an invoice by ID
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.scope.Reader().Invoices().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	status := finance.InvoiceStatus(filter.Status)
	if status != "" && !status.IsValid() {
		return nil, 0, shared.NewValidationError("Unknown invoice status " + filter.Status)
	}
	invoices, total, err := s.scope.Reader().Invoices().List(ctx, finance.InvoiceFilter{
		Status:     status,
		CustomerID: filter.CustomerID,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, ToInvoiceResponse(&invoices[i]))
	}
	return out, total, nil
}

// ListPayments returns the payments of an invoice in the order recorded
func (s *InvoiceService) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	if _, err := s.scope.Reader().Invoices().FindByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	payments, err := s.scope.Reader().Payments().ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, ToPaymentResponse(&payments[i]))
	}
	return out, nil
}

// Create bills a DELIVERED sales delivery at the prices of its order. Each
// delivery order is invoiced at most once.
func (s *InvoiceService) Create(ctx context.Context, actor shared.Actor, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	if err := actor.Require(shared.CapInvoiceManage); err != nil {
		return nil, err
	}

	var inv *finance.Invoice
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		existing, err := repos.Invoices().FindByDeliveryOrderID(ctx, req.DeliveryOrderID)
		if err == nil {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Delivery order is already invoiced").
				WithDetails(map[string]any{"invoice_id": existing.ID})
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		do, err := repos.DeliveryOrders().FindByIDForUpdate(ctx, req.DeliveryOrderID)
		if err != nil {
			return asReferenceError(err, "delivery order", req.DeliveryOrderID)
		}
		if do.SourceType != fulfillment.SourceSalesOrder {
			return shared.NewValidationError("Only sales deliveries can be invoiced")
		}
		if do.Status != fulfillment.DeliveryStatusDelivered {
			return shared.NewInvalidTransitionError("delivery order", do.Status, "INVOICED")
		}
		order, err := repos.SalesOrders().FindByID(ctx, do.SourceID)
		if err != nil {
			return asReferenceError(err, "sales order", do.SourceID)
		}
		lines, err := invoiceLines(do, order)
		if err != nil {
			return err
		}

		number, err := repos.Invoices().NextNumber(ctx)
		if err != nil {
			return err
		}
		inv, err = finance.NewInvoice(number, do.ID, order.ID, order.CustomerID, req.PONumber, lines, s.now().Add(s.cfg.PaymentTerms))
		if err != nil {
			return err
		}
		return repos.Invoices().Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("delivery_order_id", inv.DeliveryOrderID.String()),
		zap.String("total_amount", inv.TotalAmount.String()),
	)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

func invoiceLines(do *fulfillment.DeliveryOrder, order *trade.SalesOrder) ([]finance.InvoiceLine, error) {
	lines := make([]finance.InvoiceLine, 0, len(do.Items))
	for _, item := range do.Items {
		orderItem := order.FindItemByProduct(item.ProductID)
		if orderItem == nil {
			return nil, shared.NewInvariantViolationError(
				fmt.Sprintf("Delivery %s ships product %s that is not on order %s", do.DeliveryNumber, item.ProductID, order.OrderNumber),
				map[string]any{"delivery_order_id": do.ID, "product_id": item.ProductID})
		}
		_, total := trade.LinePricing(item.Quantity, orderItem.UnitPrice, orderItem.DiscountPercent, orderItem.TaxPercent)
		lines = append(lines, finance.InvoiceLine{ProductID: item.ProductID, Quantity: item.Quantity, Amount: total})
	}
	return lines, nil
}

// RecordPayment books a payment. With a finance account the money is
// deposited in the same transaction.
func (s *InvoiceService) RecordPayment(ctx context.Context, actor shared.Actor, id uuid.UUID, req RecordPaymentRequest) (*RecordPaymentResponse, error) {
	if err := actor.Require(shared.CapPaymentRecord); err != nil {
		return nil, err
	}

	var (
		inv     *finance.Invoice
		payment *finance.Payment
	)
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		inv, err = repos.Invoices().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		payment, err = inv.RecordPayment(req.Amount, finance.PaymentMethod(req.Method), req.FinanceAccountID, actor.IDPtr())
		if err != nil {
			return err
		}
		if req.FinanceAccountID != nil {
			account, err := repos.FinanceAccounts().FindByIDForUpdate(ctx, *req.FinanceAccountID)
			if err != nil {
				return asReferenceError(err, "finance account", *req.FinanceAccountID)
			}
			if _, err := account.Deposit(req.Amount, finance.SourcePayment, &payment.ID, "payment for "+inv.InvoiceNumber, actor.IDPtr()); err != nil {
				return err
			}
			if err := repos.FinanceAccounts().Save(ctx, account); err != nil {
				return err
			}
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}
		return repos.Invoices().Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("payment recorded",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.AmountPaid.String()),
		zap.String("status", string(inv.Status)),
	)
	return &RecordPaymentResponse{
		Invoice: ToInvoiceResponse(inv),
		Payment: ToPaymentResponse(payment),
	}, nil
}

// MarkOverdue flags one UNPAID invoice whose due date has passed
func (s *InvoiceService) MarkOverdue(ctx context.Context, actor shared.Actor, id uuid.UUID) (*InvoiceResponse, error) {
	if err := actor.Require(shared.CapInvoiceManage); err != nil {
		return nil, err
	}
	var inv *finance.Invoice
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		inv, err = repos.Invoices().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := inv.MarkOverdue(s.now()); err != nil {
			return err
		}
		return repos.Invoices().Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("invoice marked overdue", zap.String("invoice_id", inv.ID.String()))
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// MarkOverdueInvoices flags one batch of overdue candidates, each in its own
// transaction. A candidate paid in the meantime is skipped after the lock.
func (s *InvoiceService) MarkOverdueInvoices(ctx context.Context) (OverdueRunResult, error) {
	var result OverdueRunResult
	asOf := s.now()
	ids, err := s.scope.Reader().Invoices().FindOverdueCandidates(ctx, asOf, s.cfg.OverdueBatchSize)
	if err != nil {
		return result, fmt.Errorf("find overdue candidates: %w", err)
	}

	log := logger.L(ctx)
	for _, id := range ids {
		result.Checked++
		var marked bool
		err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
			marked = false
			inv, err := repos.Invoices().FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !inv.IsOverdueCandidate(asOf) {
				return nil
			}
			if err := inv.MarkOverdue(asOf); err != nil {
				return err
			}
			marked = true
			return repos.Invoices().Save(ctx, inv)
		})
		switch {
		case err != nil:
			result.Failed++
			log.Error("failed to mark invoice overdue", zap.String("invoice_id", id.String()), zap.Error(err))
		case marked:
			result.Marked++
		}
	}
	if result.Checked > 0 {
		log.Info("overdue invoice run finished",
			zap.Int("checked", result.Checked),
			zap.Int("marked", result.Marked),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}

func asReferenceError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewReferenceNotFoundError(entity, id)
	}
	return err
}
