package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewNotFoundError("Invoice", uuid.New()))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrContended))
	assert.Equal(t, CodeNotFound, ErrorCode(err))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
}

func TestInsufficientStockError(t *testing.T) {
	productA, productB, wh := uuid.New(), uuid.New(), uuid.New()
	err := NewInsufficientStockError(
		NewStockShortfall(productA, wh, decimal.NewFromInt(10), decimal.NewFromInt(4)),
		NewStockShortfall(productB, wh, decimal.NewFromInt(3), decimal.Zero),
	)

	shortfalls := Shortfalls(fmt.Errorf("convert: %w", err))
	require.Len(t, shortfalls, 2)
	assert.True(t, shortfalls[0].Shortfall.Equal(decimal.NewFromInt(6)))
	assert.True(t, shortfalls[1].Shortfall.Equal(decimal.NewFromInt(3)))
	assert.Contains(t, err.Error(), "2 products")
	assert.Nil(t, Shortfalls(ErrNotFound))
}

func TestIsContended(t *testing.T) {
	assert.True(t, IsContended(ErrContended))
	assert.True(t, IsContended(fmt.Errorf("save: %w", ErrConcurrencyConflict)))
	assert.False(t, IsContended(ErrInsufficientStock))
}

func TestActor_Require(t *testing.T) {
	clerk := NewActor(uuid.New(), "clerk", CapQuotationCreate, " ")
	assert.NoError(t, clerk.Require(CapQuotationCreate))

	err := clerk.Require(CapQuotationApprove)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, ErrorCode(err))

	assert.NoError(t, SystemActor.Require(CapQuotationApprove))
	assert.Nil(t, SystemActor.IDPtr())
	assert.Equal(t, clerk.UserID, *clerk.IDPtr())
}

type lightStatus string

var lightTransitions = TransitionTable[lightStatus]{
	"RED":    {"GREEN"},
	"GREEN":  {"YELLOW"},
	"YELLOW": {"RED", "OFF"},
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to lightStatus
		allowed  bool
	}{
		{"RED", "GREEN", true},
		{"RED", "YELLOW", false},
		{"YELLOW", "OFF", true},
		{"OFF", "RED", false},
		{"UNKNOWN", "RED", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, lightTransitions.Allows(tt.from, tt.to))
		})
	}

	assert.True(t, lightTransitions.IsTerminal("OFF"))
	err := lightTransitions.Check("light", "RED", "OFF")
	assert.Equal(t, CodeInvalidStateTransition, ErrorCode(err))
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 2, 10)
	assert.Equal(t, 3, p.TotalPages)

	f := Filter{Page: 0, PageSize: 1000, OrderDir: "x"}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 500, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
	assert.Equal(t, 0, f.Offset())
}
