package finance

import (
	"context"
	"fmt"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"go.uber.org/zap"
)

// SalesReturnApprovedHandler drafts the credit note of an approved return
// when automatic drafting is enabled
type SalesReturnApprovedHandler struct {
	credits *CreditNoteService
	enabled bool
	logger  *zap.Logger
}

// NewSalesReturnApprovedHandler creates a new handler for approved sales returns
func NewSalesReturnApprovedHandler(credits *CreditNoteService, enabled bool, logger *zap.Logger) *SalesReturnApprovedHandler {
	return &SalesReturnApprovedHandler{credits: credits, enabled: enabled, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SalesReturnApprovedHandler) EventTypes() []string {
	return []string{trade.EventTypeSalesReturnApproved}
}

// Handle drafts the note. A return that already has one is left as is, as
// is a return that fails validation.
func (h *SalesReturnApprovedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	approved, ok := event.(*trade.SalesReturnEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", trade.EventTypeSalesReturnApproved),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeSalesReturnApproved, event.EventType())
	}
	if !h.enabled {
		h.logger.Debug("automatic credit note drafting disabled, skipping",
			zap.String("return_id", approved.ReturnID.String()),
		)
		return nil
	}

	cn, created, err := h.credits.DraftForReturn(ctx, approved.ReturnID)
	if shared.ErrorCode(err) == shared.CodeValidation {
		// redelivery cannot fix the return, so the entry is not retried
		h.logger.Warn("sales return cannot be credited, skipping",
			zap.String("return_id", approved.ReturnID.String()),
			zap.Error(err),
		)
		return nil
	}
	if err != nil {
		h.logger.Error("failed to draft credit note for sales return",
			zap.String("return_id", approved.ReturnID.String()),
			zap.String("return_number", approved.ReturnNumber),
			zap.Error(err),
		)
		return fmt.Errorf("draft credit note for sales return %s: %w", approved.ReturnID, err)
	}
	if !created {
		h.logger.Warn("credit note already exists for sales return, skipping",
			zap.String("return_id", approved.ReturnID.String()),
			zap.String("credit_note_id", cn.ID.String()),
		)
	}
	return nil
}

var _ shared.EventHandler = (*SalesReturnApprovedHandler)(nil)
