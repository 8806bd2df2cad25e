package trade

import (
	"fmt"
	"slices"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationStatus represents the status of a quotation
type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "DRAFT"
	QuotationStatusSubmitted QuotationStatus = "SUBMITTED"
	QuotationStatusApproved  QuotationStatus = "APPROVED"
	QuotationStatusRejected  QuotationStatus = "REJECTED"
)

var quotationTransitions = shared.TransitionTable[QuotationStatus]{
	QuotationStatusDraft:     {QuotationStatusSubmitted},
	QuotationStatusSubmitted: {QuotationStatusApproved, QuotationStatusRejected},
}

// IsValid checks if the status is a valid QuotationStatus
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusSubmitted, QuotationStatusApproved, QuotationStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	return quotationTransitions.Allows(s, target)
}

var hundred = decimal.NewFromInt(100)

// QuotationItem is one priced line of a quotation
type QuotationItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	QuotationID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (QuotationItem) TableName() string {
	return "quotation_items"
}

// LinePricing returns the line amount after discount and after tax
func LinePricing(qty, unitPrice, discountPercent, taxPercent decimal.Decimal) (net, total decimal.Decimal) {
	gross := qty.Mul(unitPrice)
	net = gross.Sub(gross.Mul(discountPercent).Div(hundred))
	total = net.Add(net.Mul(taxPercent).Div(hundred)).Round(2)
	return net.Round(2), total
}

// UnitNetPrice returns the per-unit price after discount and tax
func (i *QuotationItem) UnitNetPrice() decimal.Decimal {
	_, total := LinePricing(decimal.NewFromInt(1), i.UnitPrice, i.DiscountPercent, i.TaxPercent)
	return total
}

// Quotation is a priced offer to a customer. Once approved it can be
// converted into exactly one sales order.
type Quotation struct {
	shared.BaseAggregateRoot
	QuotationNumber     string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName        string          `gorm:"type:varchar(200);not null"`
	WarehouseID         uuid.UUID       `gorm:"type:uuid;not null"`
	Status              QuotationStatus `gorm:"type:varchar(20);not null;index"`
	ValidUntil          time.Time       `gorm:"not null"`
	Notes               string          `gorm:"type:text"`
	SubtotalAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SubmittedAt         *time.Time
	ApprovedAt          *time.Time
	ApprovedBy          *uuid.UUID `gorm:"type:uuid"`
	ApprovalNotes       string     `gorm:"type:text"`
	RejectedAt          *time.Time
	RejectedBy          *uuid.UUID      `gorm:"type:uuid"`
	RejectionReasonCode string          `gorm:"type:varchar(50)"`
	RejectionNotes      string          `gorm:"type:text"`
	SalesOrderID        *uuid.UUID      `gorm:"type:uuid"`
	Items               []QuotationItem `gorm:"foreignKey:QuotationID;references:ID"`
}

// TableName returns the table name for GORM
func (Quotation) TableName() string {
	return "quotations"
}

// NewQuotation creates a DRAFT quotation
func NewQuotation(number string, customerID uuid.UUID, customerName string, warehouseID uuid.UUID, validUntil time.Time, notes string) (*Quotation, error) {
	if number == "" {
		return nil, shared.NewValidationError("Quotation number is required")
	}
	if customerID == uuid.Nil || customerName == "" {
		return nil, shared.NewValidationError("Customer is required")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewValidationError("Fulfilling warehouse is required")
	}
	if !validUntil.After(time.Now()) {
		return nil, shared.NewValidationError("Valid-until date must be in the future")
	}

	q := &Quotation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		QuotationNumber:   number,
		CustomerID:        customerID,
		CustomerName:      customerName,
		WarehouseID:       warehouseID,
		Status:            QuotationStatusDraft,
		ValidUntil:        validUntil,
		Notes:             notes,
		SubtotalAmount:    decimal.Zero,
		TotalAmount:       decimal.Zero,
		Items:             make([]QuotationItem, 0),
	}
	q.AddDomainEvent(NewQuotationEvent(EventTypeQuotationCreated, q))
	return q, nil
}

// AddItem adds a priced line. Each product may appear once.
func (q *Quotation) AddItem(productID uuid.UUID, qty, unitPrice, discountPercent, taxPercent decimal.Decimal) (*QuotationItem, error) {
	if q.Status != QuotationStatusDraft {
		return nil, shared.NewInvalidTransitionError("quotation", q.Status, "modified")
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if !qty.IsPositive() {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("Unit price cannot be negative")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return nil, shared.NewValidationError("Discount must be between 0 and 100 percent")
	}
	if taxPercent.IsNegative() {
		return nil, shared.NewValidationError("Tax cannot be negative")
	}
	for _, existing := range q.Items {
		if existing.ProductID == productID {
			return nil, shared.NewValidationError(fmt.Sprintf("Product %s is already on the quotation", productID))
		}
	}

	_, total := LinePricing(qty, unitPrice, discountPercent, taxPercent)
	now := time.Now()
	item := QuotationItem{
		ID:              uuid.New(),
		QuotationID:     q.ID,
		ProductID:       productID,
		Quantity:        qty,
		UnitPrice:       unitPrice,
		DiscountPercent: discountPercent,
		TaxPercent:      taxPercent,
		LineTotal:       total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	q.Items = append(q.Items, item)
	q.recalculateTotals()
	return &q.Items[len(q.Items)-1], nil
}

// Submit sends the quotation for approval
func (q *Quotation) Submit() error {
	if err := quotationTransitions.Check("quotation", q.Status, QuotationStatusSubmitted); err != nil {
		return err
	}
	if len(q.Items) == 0 {
		return shared.NewValidationError("Cannot submit a quotation without items")
	}
	now := time.Now()
	q.Status = QuotationStatusSubmitted
	q.SubmittedAt = &now
	q.UpdatedAt = now
	q.AddDomainEvent(NewQuotationEvent(EventTypeQuotationSubmitted, q))
	return nil
}

// Approve approves a submitted quotation
func (q *Quotation) Approve(approvedBy *uuid.UUID, notes string) error {
	if err := quotationTransitions.Check("quotation", q.Status, QuotationStatusApproved); err != nil {
		return err
	}
	now := time.Now()
	q.Status = QuotationStatusApproved
	q.ApprovedAt = &now
	q.ApprovedBy = approvedBy
	q.ApprovalNotes = notes
	q.UpdatedAt = now
	q.AddDomainEvent(NewQuotationEvent(EventTypeQuotationApproved, q))
	return nil
}

// Reject rejects a submitted quotation. The reason code must be one of
// allowedReasons.
func (q *Quotation) Reject(rejectedBy *uuid.UUID, reasonCode string, allowedReasons []string, notes string) error {
	if err := quotationTransitions.Check("quotation", q.Status, QuotationStatusRejected); err != nil {
		return err
	}
	if !slices.Contains(allowedReasons, reasonCode) {
		return &shared.DomainError{
			Code:    shared.CodeValidation,
			Message: fmt.Sprintf("Unknown rejection reason %q", reasonCode),
			Details: map[string]any{"allowed": allowedReasons},
		}
	}
	now := time.Now()
	q.Status = QuotationStatusRejected
	q.RejectedAt = &now
	q.RejectedBy = rejectedBy
	q.RejectionReasonCode = reasonCode
	q.RejectionNotes = notes
	q.UpdatedAt = now
	q.AddDomainEvent(NewQuotationEvent(EventTypeQuotationRejected, q))
	return nil
}

// IsExpired reports whether the offer is no longer valid at now
func (q *Quotation) IsExpired(now time.Time) bool {
	return now.After(q.ValidUntil)
}

// IsConverted reports whether a sales order already exists for the quotation
func (q *Quotation) IsConverted() bool {
	return q.SalesOrderID != nil
}

// CheckConvertible verifies the quotation can become a sales order at now
func (q *Quotation) CheckConvertible(now time.Time) error {
	if q.Status != QuotationStatusApproved {
		return shared.NewInvalidTransitionError("quotation", q.Status, "CONVERTED")
	}
	if q.IsExpired(now) {
		return shared.NewValidationError(fmt.Sprintf("Quotation %s expired on %s", q.QuotationNumber, q.ValidUntil.Format(time.DateOnly)))
	}
	return nil
}

// MarkConverted links the quotation to the sales order created from it
func (q *Quotation) MarkConverted(salesOrderID uuid.UUID) error {
	if err := q.CheckConvertible(time.Now()); err != nil {
		return err
	}
	if q.IsConverted() {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Quotation is already converted")
	}
	q.SalesOrderID = &salesOrderID
	q.UpdatedAt = time.Now()
	q.AddDomainEvent(NewQuotationEvent(EventTypeQuotationConverted, q))
	return nil
}

func (q *Quotation) recalculateTotals() {
	subtotal := decimal.Zero
	total := decimal.Zero
	for _, item := range q.Items {
		net, lineTotal := LinePricing(item.Quantity, item.UnitPrice, item.DiscountPercent, item.TaxPercent)
		subtotal = subtotal.Add(net)
		total = total.Add(lineTotal)
	}
	q.SubtotalAmount = subtotal
	q.TotalAmount = total
	q.UpdatedAt = time.Now()
}
