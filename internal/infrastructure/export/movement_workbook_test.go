package export

import (
	"bytes"
	"testing"
	"time"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMovementWorkbook_Label(t *testing.T) {
	w := NewMovementWorkbook()
	assert.Equal(t, "Damage Reversal", w.Label("DAMAGE_REVERSAL"))
	assert.Equal(t, "Receipt", w.Label("RECEIPT"))
	assert.Equal(t, "Wrong Item", w.Label("WRONG_ITEM"))
	assert.Equal(t, "", w.Label(""))
}

func TestMovementWorkbook_Render(t *testing.T) {
	actor := uuid.New()
	movements := []inventoryapp.StockMovementResponse{
		{
			Sequence:      1,
			Type:          "RECEIPT",
			ProductID:     uuid.New(),
			WarehouseID:   uuid.New(),
			Quantity:      decimal.NewFromInt(10),
			QuantityDelta: decimal.NewFromInt(10),
			QuantityAfter: decimal.NewFromInt(10),
			Condition:     "GOOD",
			ReferenceType: "GOODS_RECEIPT",
			ReferenceID:   uuid.New(),
			CreatedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			Sequence:      2,
			Type:          "DAMAGE_REVERSAL",
			Quantity:      decimal.RequireFromString("2.5"),
			UnusableDelta: decimal.RequireFromString("-2.5"),
			ActorID:       &actor,
			Notes:         "recount",
			CreatedAt:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	w := NewMovementWorkbook()
	var buf bytes.Buffer
	require.NoError(t, w.Render(&buf, movements))
	assert.Equal(t, "xlsx", w.Extension())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(movementSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, movementHeaders, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Receipt", rows[1][2])
	assert.Equal(t, "10", rows[1][5])
	assert.Equal(t, "Good", rows[1][12])
	assert.Equal(t, "Damage Reversal", rows[2][2])
	assert.Equal(t, "-2.5", rows[2][8])
	assert.Equal(t, actor.String(), rows[2][15])
	assert.Equal(t, "recount", rows[2][16])
}

func TestMovementWorkbook_RenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMovementWorkbook().Render(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(movementSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
