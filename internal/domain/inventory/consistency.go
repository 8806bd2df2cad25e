package inventory

import (
	"fmt"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is the triple of stock quantities tracked per record
type Balance struct {
	Quantity decimal.Decimal `json:"quantity"`
	Reserved decimal.Decimal `json:"reserved"`
	Unusable decimal.Decimal `json:"unusable"`
}

// Available returns quantity - reserved - unusable
func (b Balance) Available() decimal.Decimal {
	return b.Quantity.Sub(b.Reserved).Sub(b.Unusable)
}

// Equal compares balances numerically
func (b Balance) Equal(o Balance) bool {
	return b.Quantity.Equal(o.Quantity) && b.Reserved.Equal(o.Reserved) && b.Unusable.Equal(o.Unusable)
}

// Check verifies that no component is negative and that reserved and
// unusable stock are both covered by on-hand quantity.
func (b Balance) Check() error {
	switch {
	case b.Reserved.IsNegative():
		return fmt.Errorf("reserved quantity %s is negative", b.Reserved)
	case b.Unusable.IsNegative():
		return fmt.Errorf("unusable quantity %s is negative", b.Unusable)
	case b.Available().IsNegative():
		return fmt.Errorf("reserved %s plus unusable %s exceeds quantity %s", b.Reserved, b.Unusable, b.Quantity)
	}
	return nil
}

// BalanceOf returns the balance held by a record
func BalanceOf(r *StockRecord) Balance {
	return Balance{Quantity: r.Quantity, Reserved: r.ReservedQuantity, Unusable: r.UnusableQuantity}
}

// Mismatch describes a record whose ledger does not reproduce it
type Mismatch struct {
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Sequence    int64     `json:"sequence,omitempty"`
	Reason      string    `json:"reason"`
	Recorded    Balance   `json:"recorded"`
	Replayed    Balance   `json:"replayed"`
}

// CheckInvariants verifies the record in isolation
func CheckInvariants(r *StockRecord) error {
	b := BalanceOf(r)
	if err := b.Check(); err != nil {
		return violation(r, Mismatch{Reason: err.Error(), Recorded: b})
	}
	if !r.AvailableQuantity.Equal(b.Available()) {
		return violation(r, Mismatch{
			Reason:   fmt.Sprintf("stored available %s does not equal %s", r.AvailableQuantity, b.Available()),
			Recorded: b,
		})
	}
	return nil
}

// Replay folds movements, ordered by sequence, starting from an empty
// balance. It fails on a sequence gap, on a snapshot that does not match the
// running total, or on any intermediate balance that breaks Check.
func Replay(movements []StockMovement) (Balance, error) {
	b := Balance{Quantity: decimal.Zero, Reserved: decimal.Zero, Unusable: decimal.Zero}
	for i := range movements {
		m := &movements[i]
		if m.Sequence != int64(i+1) {
			return b, fmt.Errorf("sequence gap: expected %d, found %d", i+1, m.Sequence)
		}
		b = Balance{
			Quantity: b.Quantity.Add(m.QuantityDelta),
			Reserved: b.Reserved.Add(m.ReservedDelta),
			Unusable: b.Unusable.Add(m.UnusableDelta),
		}
		if err := b.Check(); err != nil {
			return b, fmt.Errorf("movement %d (%s): %w", m.Sequence, m.Type, err)
		}
		snapshot := Balance{Quantity: m.QuantityAfter, Reserved: m.ReservedAfter, Unusable: m.UnusableAfter}
		if !snapshot.Equal(b) {
			return b, fmt.Errorf("movement %d (%s): snapshot does not match running balance", m.Sequence, m.Type)
		}
	}
	return b, nil
}

// Reconcile verifies that the record equals the replay of its movements
func Reconcile(r *StockRecord, movements []StockMovement) error {
	if err := CheckInvariants(r); err != nil {
		return err
	}
	recorded := BalanceOf(r)
	replayed, err := Replay(movements)
	if err != nil {
		return violation(r, Mismatch{Reason: err.Error(), Recorded: recorded, Replayed: replayed})
	}
	if !replayed.Equal(recorded) {
		return violation(r, Mismatch{Reason: "ledger replay does not reproduce the stock record", Recorded: recorded, Replayed: replayed})
	}
	if int64(len(movements)) != r.LastSequence {
		return violation(r, Mismatch{
			Reason:   fmt.Sprintf("record is at sequence %d but ledger has %d movements", r.LastSequence, len(movements)),
			Recorded: recorded,
			Replayed: replayed,
		})
	}
	return nil
}

func violation(r *StockRecord, m Mismatch) error {
	m.ProductID = r.ProductID
	m.WarehouseID = r.WarehouseID
	return shared.NewInvariantViolationError(
		fmt.Sprintf("Stock record %s/%s is inconsistent: %s", r.ProductID, r.WarehouseID, m.Reason),
		m,
	)
}
