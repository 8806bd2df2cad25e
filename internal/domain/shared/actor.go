package shared

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Capability names checked by workflow operations
const (
	CapQuotationCreate    = "quotation.create"
	CapQuotationApprove   = "quotation.approve"
	CapSalesOrderManage   = "sales_order.manage"
	CapPickingManage      = "picking.manage"
	CapDeliveryManage     = "delivery.manage"
	CapTransferRequest    = "transfer.request"
	CapTransferApprove    = "transfer.approve"
	CapTransferExecute    = "transfer.execute"
	CapProcurementManage  = "procurement.manage"
	CapSalesReturnCreate  = "sales_return.create"
	CapSalesReturnApprove = "sales_return.approve"
	CapCreditNoteManage   = "credit_note.manage"
	CapInvoiceManage      = "invoice.manage"
	CapPaymentRecord      = "finance.payment"
	CapFinanceAccount     = "finance.account"
	CapStockAdjust        = "stock.adjust"
	CapStockDamage        = "stock.damage"
	CapStockView          = "stock.view"
	CapCatalogManage      = "catalog.manage"
	CapOutboxManage       = "outbox.manage"
	// CapAll grants every capability
	CapAll = "*"
)

// Actor is the authenticated caller of an operation. Authentication itself is
// done upstream; operations only check capabilities.
type Actor struct {
	UserID       uuid.UUID
	Name         string
	Capabilities []string
}

// SystemActor is used by saga steps and schedulers
var SystemActor = Actor{Name: "system", Capabilities: []string{CapAll}}

// NewActor creates an actor from a user ID and capability list
func NewActor(userID uuid.UUID, name string, capabilities ...string) Actor {
	caps := make([]string, 0, len(capabilities))
	for _, c := range capabilities {
		c = strings.TrimSpace(c)
		if c != "" {
			caps = append(caps, c)
		}
	}
	return Actor{UserID: userID, Name: name, Capabilities: caps}
}

// Can reports whether the actor holds the capability
func (a Actor) Can(capability string) bool {
	return slices.Contains(a.Capabilities, CapAll) || slices.Contains(a.Capabilities, capability)
}

// Require returns FORBIDDEN unless the actor holds the capability
func (a Actor) Require(capability string) error {
	if a.Can(capability) {
		return nil
	}
	return &DomainError{
		Code:    CodeForbidden,
		Message: fmt.Sprintf("Capability %q is required", capability),
		Details: map[string]any{"capability": capability},
	}
}

// IDPtr returns the user ID as a pointer, nil for the system actor
func (a Actor) IDPtr() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
