package catalog

import (
	"context"
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Products(t *testing.T) {
	env := testutil.NewLedgerEnv(t)
	svc := NewCatalogService(env.Scope)
	ctx := context.Background()
	actor := testutil.TestActor(shared.CapCatalogManage)

	p, err := svc.CreateProduct(ctx, actor, CreateProductRequest{SKU: "sku-c", Name: "Widget C", Unit: "pcs"})
	require.NoError(t, err)
	assert.Equal(t, "SKU-C", p.SKU)
	assert.True(t, p.Active)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget C", got.Name)

	t.Run("duplicate SKU ignores case", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, actor, CreateProductRequest{SKU: "SKU-c", Name: "Other", Unit: "pcs"})
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})

	t.Run("invalid SKU", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, actor, CreateProductRequest{SKU: "SKU C", Name: "Spaced", Unit: "pcs"})
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("requires the catalog capability", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, testutil.TestActor(shared.CapStockView), CreateProductRequest{SKU: "SKU-D", Name: "D", Unit: "pcs"})
		assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(err))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.GetProduct(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	list, total, err := svc.ListProducts(ctx, ListFilter{OrderBy: "sku", OrderDir: "asc"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, "SKU-A", list[0].SKU)
	assert.Equal(t, "SKU-C", list[2].SKU)

	page, total, err := svc.ListProducts(ctx, ListFilter{Page: 2, PageSize: 2, OrderBy: "sku", OrderDir: "asc"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "SKU-C", page[0].SKU)
}

func TestCatalogService_Warehouses(t *testing.T) {
	env := testutil.NewLedgerEnv(t)
	svc := NewCatalogService(env.Scope)
	ctx := context.Background()
	actor := testutil.TestActor(shared.CapAll)

	w, err := svc.CreateWarehouse(ctx, actor, CreateWarehouseRequest{Code: "wh-north", Name: "North"})
	require.NoError(t, err)
	assert.Equal(t, "WH-NORTH", w.Code)

	_, err = svc.CreateWarehouse(ctx, actor, CreateWarehouseRequest{Code: "WH-MAIN", Name: "Main again"})
	assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))

	_, err = svc.CreateWarehouse(ctx, actor, CreateWarehouseRequest{Code: "WH-X"})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	got, err := svc.GetWarehouse(ctx, env.WarehouseID(1))
	require.NoError(t, err)
	assert.Equal(t, "WH-EAST", got.Code)

	list, total, err := svc.ListWarehouses(ctx, ListFilter{OrderBy: "code", OrderDir: "asc"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"WH-EAST", "WH-MAIN", "WH-NORTH"}, []string{list[0].Code, list[1].Code, list[2].Code})
}
