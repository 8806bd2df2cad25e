package trade

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnStatus represents the status of a sales return
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "PENDING"
	ReturnStatusApproved  ReturnStatus = "APPROVED"
	ReturnStatusRejected  ReturnStatus = "REJECTED"
	ReturnStatusCompleted ReturnStatus = "COMPLETED"
)

var returnTransitions = shared.TransitionTable[ReturnStatus]{
	ReturnStatusPending:  {ReturnStatusApproved, ReturnStatusRejected},
	ReturnStatusApproved: {ReturnStatusCompleted},
}

// CanTransitionTo checks if the status can transition to the target status
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	return returnTransitions.Allows(s, target)
}

// SalesReturnItem is one returned line
type SalesReturnItem struct {
	ID               uuid.UUID                `gorm:"type:uuid;primaryKey"`
	SalesReturnID    uuid.UUID                `gorm:"type:uuid;not null;index"`
	SalesOrderItemID uuid.UUID                `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID                `gorm:"type:uuid;not null"`
	Quantity         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Amount           decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Condition        inventory.StockCondition `gorm:"type:varchar(20);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (SalesReturnItem) TableName() string {
	return "sales_return_items"
}

// SalesReturnLine is the input for one return line
type SalesReturnLine struct {
	SalesOrderItemID uuid.UUID
	Quantity         decimal.Decimal
	Condition        inventory.StockCondition
}

// SalesReturn is a customer returning shipped goods
type SalesReturn struct {
	shared.BaseAggregateRoot
	ReturnNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	SalesOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID  uuid.UUID       `gorm:"type:uuid;not null"`
	Status       ReturnStatus    `gorm:"type:varchar(20);not null;index"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Reason       string          `gorm:"type:text"`
	RejectReason string          `gorm:"type:text"`
	ApprovedBy   *uuid.UUID      `gorm:"type:uuid"`
	ApprovedAt   *time.Time
	RejectedAt   *time.Time
	CompletedAt  *time.Time
	CreditNoteID *uuid.UUID        `gorm:"type:uuid"`
	Items        []SalesReturnItem `gorm:"foreignKey:SalesReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesReturn) TableName() string {
	return "sales_returns"
}

// NewSalesReturn creates a PENDING return. alreadyReturned holds, per sales
// order item, the quantity on earlier returns that were not rejected.
func NewSalesReturn(number string, order *SalesOrder, lines []SalesReturnLine, alreadyReturned map[uuid.UUID]decimal.Decimal, reason string) (*SalesReturn, error) {
	if number == "" {
		return nil, shared.NewValidationError("Return number is required")
	}
	if !order.IsShipped() {
		return nil, shared.NewInvalidTransitionError("sales order", order.Status, "RETURNED")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("Return must have at least one line")
	}

	sr := &SalesReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      number,
		SalesOrderID:      order.ID,
		CustomerID:        order.CustomerID,
		WarehouseID:       order.WarehouseID,
		Status:            ReturnStatusPending,
		TotalAmount:       decimal.Zero,
		Reason:            reason,
		Items:             make([]SalesReturnItem, 0, len(lines)),
	}
	requested := make(map[uuid.UUID]decimal.Decimal, len(lines))
	now := time.Now()
	for _, line := range lines {
		item := order.FindItem(line.SalesOrderItemID)
		if item == nil {
			return nil, shared.NewReferenceNotFoundError("sales order item", line.SalesOrderItemID)
		}
		if !line.Quantity.IsPositive() {
			return nil, shared.NewValidationError("Returned quantity must be positive")
		}
		condition := line.Condition
		if condition == "" {
			condition = inventory.ConditionGood
		}
		if condition != inventory.ConditionGood && condition != inventory.ConditionDamaged {
			return nil, shared.NewValidationError(fmt.Sprintf("Return condition must be GOOD or DAMAGED, got %q", condition))
		}

		total := requested[item.ID].Add(line.Quantity)
		returnable := item.QuantityShipped.Sub(alreadyReturned[item.ID])
		if total.GreaterThan(returnable) {
			return nil, &shared.DomainError{
				Code:    shared.CodeValidation,
				Message: fmt.Sprintf("Returned quantity %s exceeds returnable %s", total, returnable),
				Details: map[string]any{"sales_order_item_id": item.ID, "shipped": item.QuantityShipped, "already_returned": alreadyReturned[item.ID]},
			}
		}
		requested[item.ID] = total

		amount := item.AmountFor(line.Quantity)
		sr.Items = append(sr.Items, SalesReturnItem{
			ID:               uuid.New(),
			SalesReturnID:    sr.ID,
			SalesOrderItemID: item.ID,
			ProductID:        item.ProductID,
			Quantity:         line.Quantity,
			Amount:           amount,
			Condition:        condition,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		sr.TotalAmount = sr.TotalAmount.Add(amount)
	}
	sr.AddDomainEvent(NewSalesReturnEvent(EventTypeSalesReturnCreated, sr))
	return sr, nil
}

// Reference returns the movement reference of the return
func (sr *SalesReturn) Reference() inventory.Reference {
	return inventory.NewReference(inventory.RefSalesReturn, sr.ID)
}

// Approve accepts the goods back; the caller books them into stock
func (sr *SalesReturn) Approve(approvedBy *uuid.UUID) error {
	if err := returnTransitions.Check("sales return", sr.Status, ReturnStatusApproved); err != nil {
		return err
	}
	now := time.Now()
	sr.Status = ReturnStatusApproved
	sr.ApprovedBy = approvedBy
	sr.ApprovedAt = &now
	sr.UpdatedAt = now
	sr.AddDomainEvent(NewSalesReturnEvent(EventTypeSalesReturnApproved, sr))
	return nil
}

// Reject refuses the return; no stock moves
func (sr *SalesReturn) Reject(reason string) error {
	if err := returnTransitions.Check("sales return", sr.Status, ReturnStatusRejected); err != nil {
		return err
	}
	if reason == "" {
		return shared.NewValidationError("Reject reason is required")
	}
	now := time.Now()
	sr.Status = ReturnStatusRejected
	sr.RejectReason = reason
	sr.RejectedAt = &now
	sr.UpdatedAt = now
	sr.AddDomainEvent(NewSalesReturnEvent(EventTypeSalesReturnRejected, sr))
	return nil
}

// Complete links the credit note issued for the return
func (sr *SalesReturn) Complete(creditNoteID uuid.UUID) error {
	if err := returnTransitions.Check("sales return", sr.Status, ReturnStatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	sr.Status = ReturnStatusCompleted
	sr.CreditNoteID = &creditNoteID
	sr.CompletedAt = &now
	sr.UpdatedAt = now
	sr.AddDomainEvent(NewSalesReturnEvent(EventTypeSalesReturnCompleted, sr))
	return nil
}
