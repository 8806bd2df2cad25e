package finance

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "UNPAID"  // nothing paid yet
	InvoiceStatusPartial InvoiceStatus = "PARTIAL" // 0 < total_paid < total_amount
	InvoiceStatusPaid    InvoiceStatus = "PAID"    // balance due is zero
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE" // due date passed with nothing paid
)

var invoiceTransitions = shared.TransitionTable[InvoiceStatus]{
	InvoiceStatusUnpaid:  {InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusOverdue},
	InvoiceStatusPartial: {InvoiceStatusPartial, InvoiceStatusPaid},
	InvoiceStatusOverdue: {InvoiceStatusPartial, InvoiceStatusPaid},
}

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// CanApplyPayment returns true if payments or credits can be applied
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusUnpaid || s == InvoiceStatusPartial || s == InvoiceStatusOverdue
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	return invoiceTransitions.Allows(s, target)
}

// InvoiceItem is one delivered product billed on the invoice
type InvoiceItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// InvoiceLine is the input for one billed line
type InvoiceLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Amount    decimal.Decimal
}

// Invoice bills a customer for one delivered delivery order
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	DeliveryOrderID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	SalesOrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PONumber        string          `gorm:"column:po_number;type:varchar(100)"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPaid       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreditedAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status          InvoiceStatus   `gorm:"type:varchar(20);not null;index"`
	DueDate         time.Time       `gorm:"not null;index"`
	PaidAt          *time.Time
	OverdueAt       *time.Time
	Items           []InvoiceItem `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates an UNPAID invoice whose total is the sum of its lines
func NewInvoice(number string, deliveryOrderID, salesOrderID, customerID uuid.UUID, poNumber string, lines []InvoiceLine, dueDate time.Time) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewValidationError("Invoice number is required")
	}
	if deliveryOrderID == uuid.Nil || salesOrderID == uuid.Nil {
		return nil, shared.NewValidationError("Invoice must reference a delivery order and its sales order")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("Invoice must have at least one line")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     number,
		DeliveryOrderID:   deliveryOrderID,
		SalesOrderID:      salesOrderID,
		CustomerID:        customerID,
		PONumber:          poNumber,
		TotalAmount:       decimal.Zero,
		TotalPaid:         decimal.Zero,
		CreditedAmount:    decimal.Zero,
		Status:            InvoiceStatusUnpaid,
		DueDate:           dueDate,
		Items:             make([]InvoiceItem, 0, len(lines)),
	}
	now := time.Now()
	for _, line := range lines {
		if !line.Quantity.IsPositive() || line.Amount.IsNegative() {
			return nil, shared.NewValidationError("Invoice lines need a positive quantity and a non-negative amount")
		}
		inv.Items = append(inv.Items, InvoiceItem{
			ID:        uuid.New(),
			InvoiceID: inv.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Amount:    line.Amount,
			CreatedAt: now,
			UpdatedAt: now,
		})
		inv.TotalAmount = inv.TotalAmount.Add(line.Amount)
	}
	if !inv.TotalAmount.IsPositive() {
		return nil, shared.NewValidationError("Invoice total must be positive")
	}
	inv.AddDomainEvent(NewInvoiceEvent(EventTypeInvoiceCreated, inv, decimal.Zero))
	return inv, nil
}

// BalanceDue returns total_amount − total_paid
func (inv *Invoice) BalanceDue() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.TotalPaid)
}

// RecordPayment books a customer payment. Paying more than the balance due
// fails with OVER_PAYMENT and changes nothing.
func (inv *Invoice) RecordPayment(amount decimal.Decimal, method PaymentMethod, accountID, recordedBy *uuid.UUID) (*Payment, error) {
	if !method.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Unknown payment method %q", method))
	}
	if err := inv.settle(amount); err != nil {
		return nil, err
	}
	payment := &Payment{
		ID:               uuid.New(),
		InvoiceID:        inv.ID,
		AmountPaid:       amount,
		Method:           method,
		FinanceAccountID: accountID,
		PaidAt:           time.Now(),
		RecordedBy:       recordedBy,
	}
	payment.CreatedAt = payment.PaidAt
	inv.AddDomainEvent(NewInvoiceEvent(EventTypeInvoicePaymentRecorded, inv, amount))
	if inv.Status == InvoiceStatusPaid {
		inv.AddDomainEvent(NewInvoiceEvent(EventTypeInvoicePaid, inv, amount))
	}
	return payment, nil
}

// ApplyCredit settles part of the balance with a credit note
func (inv *Invoice) ApplyCredit(amount decimal.Decimal) error {
	if err := inv.settle(amount); err != nil {
		return err
	}
	inv.CreditedAmount = inv.CreditedAmount.Add(amount)
	if inv.Status == InvoiceStatusPaid {
		inv.AddDomainEvent(NewInvoiceEvent(EventTypeInvoicePaid, inv, amount))
	}
	return nil
}

func (inv *Invoice) settle(amount decimal.Decimal) error {
	if !inv.Status.CanApplyPayment() {
		return shared.NewInvalidTransitionError("invoice", inv.Status, InvoiceStatusPaid)
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Amount must be positive")
	}
	balance := inv.BalanceDue()
	if amount.GreaterThan(balance) {
		return shared.NewOverPaymentError(amount, balance)
	}

	now := time.Now()
	inv.TotalPaid = inv.TotalPaid.Add(amount)
	inv.UpdatedAt = now
	if inv.BalanceDue().IsZero() {
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &now
	} else {
		inv.Status = InvoiceStatusPartial
	}
	return nil
}

// IsOverdueCandidate reports whether MarkOverdue would succeed at asOf
func (inv *Invoice) IsOverdueCandidate(asOf time.Time) bool {
	return inv.Status == InvoiceStatusUnpaid && inv.TotalPaid.IsZero() && inv.DueDate.Before(asOf)
}

// MarkOverdue flags an UNPAID invoice whose due date passed with nothing paid
func (inv *Invoice) MarkOverdue(asOf time.Time) error {
	if err := invoiceTransitions.Check("invoice", inv.Status, InvoiceStatusOverdue); err != nil {
		return err
	}
	if !inv.TotalPaid.IsZero() {
		return shared.NewInvalidTransitionError("invoice", InvoiceStatusPartial, InvoiceStatusOverdue)
	}
	if !inv.DueDate.Before(asOf) {
		return shared.NewValidationError(fmt.Sprintf("Invoice %s is not due until %s", inv.InvoiceNumber, inv.DueDate.Format(time.DateOnly)))
	}
	inv.Status = InvoiceStatusOverdue
	inv.OverdueAt = &asOf
	inv.UpdatedAt = time.Now()
	inv.AddDomainEvent(NewInvoiceEvent(EventTypeInvoiceOverdue, inv, decimal.Zero))
	return nil
}

// PaymentMethod is how a customer paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCheque:
		return true
	}
	return false
}

// Payment is an immutable record of money received against an invoice
type Payment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountPaid       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method           PaymentMethod   `gorm:"type:varchar(20);not null"`
	FinanceAccountID *uuid.UUID      `gorm:"type:uuid"`
	PaidAt           time.Time       `gorm:"not null"`
	RecordedBy       *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt        time.Time
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
