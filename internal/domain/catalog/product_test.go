package catalog

import (
	"strings"
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("sku-a", "Widget", "pcs")

	require.NoError(t, err)
	assert.Equal(t, "SKU-A", p.SKU)
	assert.True(t, p.Active)
	assert.Equal(t, 1, p.Version)

	p.Deactivate()
	assert.False(t, p.Active)
}

func TestNewProduct_Validation(t *testing.T) {
	tests := []struct {
		name             string
		sku, pname, unit string
	}{
		{"empty sku", "", "Widget", "pcs"},
		{"sku with spaces", "SKU A", "Widget", "pcs"},
		{"sku too long", strings.Repeat("A", 51), "Widget", "pcs"},
		{"empty name", "SKU-A", "", "pcs"},
		{"empty unit", "SKU-A", "Widget", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.sku, tt.pname, tt.unit)
			assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
		})
	}
}

func TestNewWarehouse(t *testing.T) {
	w, err := NewWarehouse("wh-north", "North")
	require.NoError(t, err)
	assert.Equal(t, "WH-NORTH", w.Code)

	_, err = NewWarehouse("WH/1", "North")
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
}
