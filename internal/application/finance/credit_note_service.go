package finance

import (
	"context"
	"errors"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreditNoteService turns approved returns into credit notes and applies
// them to invoices
type CreditNoteService struct {
	scope uow.TransactionScope
}

// NewCreditNoteService creates a new CreditNoteService
func NewCreditNoteService(scope uow.TransactionScope) *CreditNoteService {
	return &CreditNoteService{scope: scope}
}

// Get returns a credit note by ID
func (s *CreditNoteService) Get(ctx context.Context, id uuid.UUID) (*CreditNoteResponse, error) {
	cn, err := s.scope.Reader().CreditNotes().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCreditNoteResponse(cn)
	return &resp, nil
}

// Create drafts the credit note of an APPROVED return and completes the
// return. Asking again for the same return gives back the existing note.
func (s *CreditNoteService) Create(ctx context.Context, actor shared.Actor, req CreateCreditNoteRequest) (*CreditNoteResponse, error) {
	if err := actor.Require(shared.CapCreditNoteManage); err != nil {
		return nil, err
	}
	cn, _, err := s.DraftForReturn(ctx, req.SalesReturnID)
	if err != nil {
		return nil, err
	}
	resp := ToCreditNoteResponse(cn)
	return &resp, nil
}

// DraftForReturn is Create without the capability check, for the return
// approval saga. It reports whether a new note was drafted.
func (s *CreditNoteService) DraftForReturn(ctx context.Context, salesReturnID uuid.UUID) (*finance.CreditNote, bool, error) {
	var (
		cn      *finance.CreditNote
		created bool
	)
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		created = false
		sr, err := repos.SalesReturns().FindByIDForUpdate(ctx, salesReturnID)
		if err != nil {
			return asReferenceError(err, "sales return", salesReturnID)
		}
		cn, err = repos.CreditNotes().FindBySalesReturnID(ctx, sr.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		number, err := repos.CreditNotes().NextNumber(ctx)
		if err != nil {
			return err
		}
		cn, err = finance.NewCreditNote(number, sr)
		if err != nil {
			return err
		}
		if err := sr.Complete(cn.ID); err != nil {
			return err
		}
		if err := repos.CreditNotes().Save(ctx, cn); err != nil {
			return err
		}
		created = true
		return repos.SalesReturns().Save(ctx, sr)
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		logger.L(ctx).Info("credit note drafted",
			zap.String("credit_note_id", cn.ID.String()),
			zap.String("sales_return_id", salesReturnID.String()),
			zap.String("amount", cn.TotalAmount.String()),
		)
	}
	return cn, created, nil
}

// Issue makes a drafted note claimable
func (s *CreditNoteService) Issue(ctx context.Context, actor shared.Actor, id uuid.UUID) (*CreditNoteResponse, error) {
	if err := actor.Require(shared.CapCreditNoteManage); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "credit note issued", func(cn *finance.CreditNote) error {
		return cn.Issue()
	})
}

// Void cancels a note with nothing used
func (s *CreditNoteService) Void(ctx context.Context, actor shared.Actor, id uuid.UUID, req VoidCreditNoteRequest) (*CreditNoteResponse, error) {
	if err := actor.Require(shared.CapCreditNoteManage); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "credit note voided", func(cn *finance.CreditNote) error {
		return cn.Void(req.Reason)
	})
}

// Claim applies as much of the note as the invoice's balance due allows.
// The note is locked before the invoice.
func (s *CreditNoteService) Claim(ctx context.Context, actor shared.Actor, id uuid.UUID, req ClaimCreditNoteRequest) (*ClaimCreditNoteResponse, error) {
	if err := actor.Require(shared.CapCreditNoteManage); err != nil {
		return nil, err
	}

	var (
		cn  *finance.CreditNote
		inv *finance.Invoice
		app *finance.CreditNoteApplication
	)
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		cn, err = repos.CreditNotes().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		inv, err = repos.Invoices().FindByIDForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return asReferenceError(err, "invoice", req.InvoiceID)
		}
		app, err = cn.Claim(inv, actor.IDPtr())
		if err != nil {
			return err
		}
		if err := repos.CreditNotes().CreateApplication(ctx, app); err != nil {
			return err
		}
		if err := repos.CreditNotes().Save(ctx, cn); err != nil {
			return err
		}
		return repos.Invoices().Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("credit note claimed",
		zap.String("credit_note_id", cn.ID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("amount", app.Amount.String()),
		zap.String("credit_note_status", string(cn.Status)),
	)
	return &ClaimCreditNoteResponse{
		CreditNote:    ToCreditNoteResponse(cn),
		Invoice:       ToInvoiceResponse(inv),
		AppliedAmount: app.Amount,
	}, nil
}

func (s *CreditNoteService) update(ctx context.Context, id uuid.UUID, msg string, fn func(*finance.CreditNote) error) (*CreditNoteResponse, error) {
	var cn *finance.CreditNote
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		cn, err = repos.CreditNotes().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(cn); err != nil {
			return err
		}
		return repos.CreditNotes().Save(ctx, cn)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info(msg,
		zap.String("credit_note_id", cn.ID.String()),
		zap.String("status", string(cn.Status)),
	)
	resp := ToCreditNoteResponse(cn)
	return &resp, nil
}
