package trade

import (
	"testing"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShippedOrder(t *testing.T) *SalesOrder {
	t.Helper()
	o := newTestSalesOrder(t)
	require.NoError(t, o.StartProcessing())
	require.NoError(t, o.MarkReadyToShip())
	require.NoError(t, o.RecordShipment(o.Items[0].ProductID, o.Items[0].Quantity))
	require.NoError(t, o.MarkShipped())
	return o
}

func TestNewSalesReturn(t *testing.T) {
	o := newShippedOrder(t)
	itemID := o.Items[0].ID

	t.Run("prices returned lines at order terms", func(t *testing.T) {
		sr, err := NewSalesReturn("RT-1", o, []SalesReturnLine{
			{SalesOrderItemID: itemID, Quantity: dec("1"), Condition: inventory.ConditionGood},
			{SalesOrderItemID: itemID, Quantity: dec("1"), Condition: inventory.ConditionDamaged},
		}, nil, "broken box")
		require.NoError(t, err)
		assert.Equal(t, ReturnStatusPending, sr.Status)
		assert.True(t, sr.TotalAmount.Equal(dec("189")))
		assert.Equal(t, o.CustomerID, sr.CustomerID)
	})

	t.Run("bounded by shipped minus already returned", func(t *testing.T) {
		already := map[uuid.UUID]decimal.Decimal{itemID: dec("2")}
		_, err := NewSalesReturn("RT-2", o, []SalesReturnLine{{SalesOrderItemID: itemID, Quantity: dec("2")}}, already, "")
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

		_, err = NewSalesReturn("RT-3", o, []SalesReturnLine{{SalesOrderItemID: itemID, Quantity: dec("1")}}, already, "")
		assert.NoError(t, err)
	})

	t.Run("only good or damaged", func(t *testing.T) {
		_, err := NewSalesReturn("RT-4", o, []SalesReturnLine{
			{SalesOrderItemID: itemID, Quantity: dec("1"), Condition: inventory.ConditionWrongItem},
		}, nil, "")
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("order must be shipped", func(t *testing.T) {
		pending := newTestSalesOrder(t)
		_, err := NewSalesReturn("RT-5", pending, []SalesReturnLine{{SalesOrderItemID: pending.Items[0].ID, Quantity: dec("1")}}, nil, "")
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
	})
}

func TestSalesReturn_Workflow(t *testing.T) {
	o := newShippedOrder(t)
	newReturn := func() *SalesReturn {
		sr, err := NewSalesReturn("RT-1", o, []SalesReturnLine{{SalesOrderItemID: o.Items[0].ID, Quantity: dec("1")}}, nil, "")
		require.NoError(t, err)
		return sr
	}

	t.Run("approve then complete", func(t *testing.T) {
		sr := newReturn()
		require.NoError(t, sr.Approve(nil))
		noteID := uuid.New()
		require.NoError(t, sr.Complete(noteID))
		assert.Equal(t, ReturnStatusCompleted, sr.Status)
		assert.Equal(t, noteID, *sr.CreditNoteID)
	})

	t.Run("reject needs reason and is terminal", func(t *testing.T) {
		sr := newReturn()
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(sr.Reject("")))
		require.NoError(t, sr.Reject("outside policy"))
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(sr.Approve(nil)))
	})

	t.Run("pending return cannot complete", func(t *testing.T) {
		sr := newReturn()
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(sr.Complete(uuid.New())))
	})
}
