package catalog

import (
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
)

// Warehouse is a physical location holding stock
type Warehouse struct {
	shared.BaseAggregateRoot
	Code   string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name   string `gorm:"type:varchar(200);not null"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates an active warehouse; the code is stored upper case
func NewWarehouse(code, name string) (*Warehouse, error) {
	if err := validateCode("Warehouse code", code); err != nil {
		return nil, err
	}
	if err := validateName("Warehouse", name); err != nil {
		return nil, err
	}
	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Active:            true,
	}, nil
}

// Deactivate stops the warehouse from taking part in new movements
func (w *Warehouse) Deactivate() {
	w.Active = false
	w.UpdatedAt = time.Now()
}
