package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/erp/stockledger/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add reservations table", "add_reservations_table"},
		{"Add-Stock-Index", "add_stock_index"},
		{"ADD_OUTBOX", "add_outbox"},
		{"add__ledger__trigger", "add_ledger_trigger"},
		{"Add Column 123", "add_column_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add stock index", "Index movements by actor")
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Version)
	assert.Equal(t, "000001_add_stock_index.up.sql", filepath.Base(first.UpPath))
	assert.Equal(t, "000001_add_stock_index.down.sql", filepath.Base(first.DownPath))

	second, err := CreateMigration(dir, "Drop-Old-Column", "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.Version)
	assert.True(t, strings.HasPrefix(filepath.Base(second.UpPath), "000002_drop_old_column"))

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add stock index")
	assert.Contains(t, string(up), "Index movements by actor")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")

	listed, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.NoError(t, Validate(listed))
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_reservations.up.sql":   {Data: []byte("--")},
		"000002_add_reservations.down.sql": {Data: []byte("--")},
		"000001_init.up.sql":               {Data: []byte("--")},
		"000001_init.down.sql":             {Data: []byte("--")},
		"000003_orphan.up.sql":             {Data: []byte("--")},
		"README.md":                        {Data: []byte("docs")},
		"migrations.go":                    {Data: []byte("package migrations")},
		"not_versioned.up.sql":             {Data: []byte("--")},
		"subdir.up.sql/file":               {Data: []byte("--")},
	}

	listed, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "000001_init", listed[0].BaseName())
	assert.Equal(t, "000002_add_reservations", listed[1].BaseName())
	assert.True(t, listed[2].HasUp)
	assert.False(t, listed[2].HasDown)

	err = Validate(listed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003_orphan has no down migration")
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	listed, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestValidate_Gap(t *testing.T) {
	err := Validate([]Migration{
		{Version: 1, Name: "init", HasUp: true, HasDown: true},
		{Version: 3, Name: "late", HasUp: true, HasDown: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected version 2")
}

func TestEmbeddedMigrations(t *testing.T) {
	listed, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, listed)
	require.NoError(t, Validate(listed))

	var schema strings.Builder
	for _, m := range listed {
		data, err := migrations.FS.ReadFile(m.BaseName() + ".up.sql")
		require.NoError(t, err)
		schema.Write(data)
	}
	for _, table := range []string{
		"products", "warehouses", "stock_records", "stock_movements", "reservations",
		"warehouse_transfers", "quotations", "sales_orders", "purchase_orders",
		"goods_receipts", "sales_returns", "picking_lists", "delivery_orders",
		"invoices", "payments", "credit_notes", "credit_note_applications",
		"finance_accounts", "finance_transactions", "outbox_entries", "document_sequences",
	} {
		assert.Contains(t, schema.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
