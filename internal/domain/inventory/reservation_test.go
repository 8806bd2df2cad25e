package inventory

import (
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReservation(t *testing.T, qty int64) *Reservation {
	t.Helper()
	r, err := NewReservation(NewReference(RefSalesOrder, uuid.New()), uuid.New(), uuid.New(), dec(qty))
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	_, err := NewReservation(Reference{}, uuid.New(), uuid.New(), dec(1))
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	_, err = NewReservation(NewReference(RefSalesOrder, uuid.New()), uuid.New(), uuid.New(), dec(0))
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	r := newTestReservation(t, 3)
	assert.Equal(t, ReservationStatusActive, r.Status)
	assert.True(t, r.Outstanding().Equal(dec(3)))
}

func TestReservation_Release(t *testing.T) {
	t.Run("zero releases everything outstanding", func(t *testing.T) {
		r := newTestReservation(t, 5)
		released := r.Release(decimal.Zero)

		assert.True(t, released.Equal(dec(5)))
		assert.Equal(t, ReservationStatusReleased, r.Status)
	})

	t.Run("partial release stays active", func(t *testing.T) {
		r := newTestReservation(t, 5)
		released := r.Release(dec(2))

		assert.True(t, released.Equal(dec(2)))
		assert.True(t, r.Outstanding().Equal(dec(3)))
		assert.True(t, r.IsActive())
	})

	t.Run("release is clamped and idempotent", func(t *testing.T) {
		r := newTestReservation(t, 5)
		assert.True(t, r.Release(dec(9)).Equal(dec(5)))
		assert.True(t, r.Release(dec(1)).IsZero())
	})
}

func TestReservation_Consume(t *testing.T) {
	r := newTestReservation(t, 4)
	require.NoError(t, r.Consume(dec(3)))
	assert.True(t, r.IsActive())

	err := r.Consume(dec(2))
	assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))

	released := r.Release(decimal.Zero)
	assert.True(t, released.Equal(dec(1)))
	assert.Equal(t, ReservationStatusConsumed, r.Status, "a partly shipped reservation ends consumed")

	err = r.Consume(dec(1))
	assert.Equal(t, shared.CodeInvalidStateTransition, shared.ErrorCode(err))
}
