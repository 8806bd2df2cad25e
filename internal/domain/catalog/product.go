package catalog

import (
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
)

// Product represents a SKU that stock is kept for
type Product struct {
	shared.BaseAggregateRoot
	SKU    string `gorm:"column:sku;type:varchar(50);not null;uniqueIndex"`
	Name   string `gorm:"type:varchar(200);not null"`
	Unit   string `gorm:"type:varchar(20);not null"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates an active product; the SKU is stored upper case
func NewProduct(sku, name, unit string) (*Product, error) {
	if err := validateCode("SKU", sku); err != nil {
		return nil, err
	}
	if err := validateName("Product", name); err != nil {
		return nil, err
	}
	if unit == "" {
		return nil, shared.NewValidationError("Unit cannot be empty")
	}
	if len(unit) > 20 {
		return nil, shared.NewValidationError("Unit cannot exceed 20 characters")
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(sku),
		Name:              name,
		Unit:              unit,
		Active:            true,
	}, nil
}

// Deactivate hides the product from new documents
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

// validateCode checks a business code: letters, digits, underscores and hyphens
func validateCode(label, code string) error {
	if code == "" {
		return shared.NewValidationError(label + " cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewValidationError(label + " cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewValidationError(label + " can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateName(label, name string) error {
	if name == "" {
		return shared.NewValidationError(label + " name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError(label + " name cannot exceed 200 characters")
	}
	return nil
}
