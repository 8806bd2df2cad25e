package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockFilter selects stock records for listing
type StockFilter struct {
	ProductID     *uuid.UUID
	WarehouseID   *uuid.UUID
	IncludeHidden bool
	OnlyAvailable bool
	Page          int
	PageSize      int
}

// StockRecordRepository defines persistence for stock records. Save also
// appends the record's pending movements to the ledger, in the same
// transaction as the balance update.
type StockRecordRepository interface {
	// FindByProductAndWarehouse returns the record without locking it
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecord, error)

	// FindForUpdate returns the record holding a row lock until the transaction ends
	FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecord, error)

	// GetOrCreateForUpdate locks the record, creating an empty one first if needed
	GetOrCreateForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecord, error)

	// List returns records matching the filter and the total count
	List(ctx context.Context, filter StockFilter) ([]StockRecord, int64, error)

	// Save persists the record (version-checked) and its pending movements
	Save(ctx context.Context, record *StockRecord) error
}

// StockMovementRepository reads the append-only ledger
type StockMovementRepository interface {
	// FindByRecord returns every movement of a product-warehouse pair ordered by sequence
	FindByRecord(ctx context.Context, productID, warehouseID uuid.UUID) ([]StockMovement, error)

	// List returns movements matching the filter, newest first, and the total count
	List(ctx context.Context, filter MovementFilter) ([]StockMovement, int64, error)

	// Iterate streams movements matching the filter in ledger order
	Iterate(ctx context.Context, filter MovementFilter, fn func(*StockMovement) error) error
}

// ReservationRepository defines persistence for reservations
type ReservationRepository interface {
	// FindByKey finds the reservation of a product held for a document
	FindByKey(ctx context.Context, ref Reference, productID uuid.UUID) (*Reservation, error)

	// FindByReference finds every reservation held for a document
	FindByReference(ctx context.Context, ref Reference) ([]Reservation, error)

	// Save creates or updates a reservation
	Save(ctx context.Context, reservation *Reservation) error
}

// TransferFilter selects transfers for listing
type TransferFilter struct {
	Status      TransferStatus
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	Page        int
	PageSize    int
}

// WarehouseTransferRepository defines persistence for warehouse transfers
type WarehouseTransferRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*WarehouseTransfer, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*WarehouseTransfer, error)
	List(ctx context.Context, filter TransferFilter) ([]WarehouseTransfer, int64, error)
	Save(ctx context.Context, transfer *WarehouseTransfer) error
}
