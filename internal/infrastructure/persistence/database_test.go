package persistence

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockDatabase creates a Database instance with a mocked PostgreSQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return &Database{DB: gormDB, Driver: "postgres"}, mock, mockDB
}

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	}

	db, err := NewDatabase(cfg, WithLogger(zap.NewNop(), gormlogger.Warn), WithSlowThreshold(time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, "sqlite", db.Driver)
	require.NoError(t, db.Ping())
	require.NoError(t, db.AutoMigrate())

	for _, table := range []string{"stock_records", "stock_movements", "invoices", "outbox_entries", "document_sequences"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Ping(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	assert.NoError(t, db.Ping())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_SetsLockTimeoutOnPostgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '750ms'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	scope := NewGormTransactionScope(db.DB, nil, 750*time.Millisecond)
	called := false
	err := scope.Execute(context.Background(), func(ctx context.Context, repos uow.Repositories) error {
		called = true
		assert.NotNil(t, repos.StockRecords())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_LockTimeoutIsContended(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '100ms'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "stock_records"`).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	scope := NewGormTransactionScope(db.DB, nil, 100*time.Millisecond)
	err := scope.Execute(context.Background(), func(ctx context.Context, repos uow.Repositories) error {
		_, err := repos.StockRecords().FindForUpdate(ctx, uuid.New(), uuid.New())
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrContended)
	assert.True(t, shared.IsContended(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db, nil, 0)
	ctx := context.Background()

	err := scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		rec, err := repos.StockRecords().GetOrCreateForUpdate(ctx, uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Version)
		return shared.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	var count int64
	require.NoError(t, db.Table("stock_records").Count(&count).Error)
	assert.Zero(t, count)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, shared.ErrAlreadyExists},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, shared.ErrContended},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, shared.ErrContended},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, shared.ErrContended},
		{"unique violation", &pgconn.PgError{Code: "23505"}, shared.ErrAlreadyExists},
		{"domain error passes through", shared.ErrOverPayment, shared.ErrOverPayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, TranslateError(tt.in), tt.want)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, TranslateError(nil))
	})

	t.Run("unknown errors are returned unchanged", func(t *testing.T) {
		plain := errors.New("boom")
		assert.Same(t, plain, TranslateError(plain))
	})
}
