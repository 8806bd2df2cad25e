package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/event"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory SQLite database with every table.
// A single connection serializes transactions the way row locks would.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(persistence.Models()...))
	return db
}

// registeredEvents is the serializer the server writes the outbox with
var registeredEvents = func() *event.EventSerializer {
	s := event.NewEventSerializer()
	event.RegisterAllEvents(s)
	return s
}()

// RecordingOutbox keeps every event saved through it. Events are encoded
// with the server's serializer first, so an unregistered event type fails
// the save just as it would in production.
type RecordingOutbox struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// SaveEvents implements shared.OutboxEventSaver
func (o *RecordingOutbox) SaveEvents(_ context.Context, _ any, events ...shared.DomainEvent) error {
	for _, e := range events {
		if _, err := registeredEvents.Serialize(e); err != nil {
			return err
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, events...)
	return nil
}

// Events returns the recorded events in save order
func (o *RecordingOutbox) Events() []shared.DomainEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]shared.DomainEvent(nil), o.events...)
}

// EventsOfType returns the recorded events of one type
func (o *RecordingOutbox) EventsOfType(eventType string) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, e := range o.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// LedgerEnv bundles a SQLite-backed transaction scope with seeded catalog data
type LedgerEnv struct {
	DB         *gorm.DB
	Scope      *persistence.GormTransactionScope
	Outbox     *RecordingOutbox
	Products   []*catalog.Product
	Warehouses []*catalog.Warehouse
}

// NewLedgerEnv creates a database with two products and two warehouses
func NewLedgerEnv(t *testing.T) *LedgerEnv {
	t.Helper()
	db := NewSQLiteDB(t)
	outbox := &RecordingOutbox{}
	env := &LedgerEnv{
		DB:     db,
		Scope:  persistence.NewGormTransactionScope(db, outbox, 0),
		Outbox: outbox,
	}
	ctx := context.Background()
	for _, sku := range []string{"SKU-A", "SKU-B"} {
		p, err := catalog.NewProduct(sku, "Product "+sku, "pcs")
		require.NoError(t, err)
		require.NoError(t, persistence.NewGormProductRepository(db).Save(ctx, p))
		env.Products = append(env.Products, p)
	}
	for _, code := range []string{"WH-MAIN", "WH-EAST"} {
		w, err := catalog.NewWarehouse(code, "Warehouse "+code)
		require.NoError(t, err)
		require.NoError(t, persistence.NewGormWarehouseRepository(db).Save(ctx, w))
		env.Warehouses = append(env.Warehouses, w)
	}
	return env
}

// ProductID returns the ID of the i-th seeded product
func (e *LedgerEnv) ProductID(i int) uuid.UUID {
	return e.Products[i].ID
}

// WarehouseID returns the ID of the i-th seeded warehouse
func (e *LedgerEnv) WarehouseID(i int) uuid.UUID {
	return e.Warehouses[i].ID
}

// TestActor returns an actor holding the given capabilities
func TestActor(capabilities ...string) shared.Actor {
	return shared.NewActor(NewTestUUID("test-actor"), "tester", capabilities...)
}
