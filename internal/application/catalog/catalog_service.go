package catalog

import (
	"context"
	"errors"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService maintains the reference data stock is kept against
type CatalogService struct {
	scope uow.TransactionScope
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(scope uow.TransactionScope) *CatalogService {
	return &CatalogService{scope: scope}
}

// CreateProduct creates a new product
func (s *CatalogService) CreateProduct(ctx context.Context, actor shared.Actor, req CreateProductRequest) (*ProductResponse, error) {
	if err := actor.Require(shared.CapCatalogManage); err != nil {
		return nil, err
	}
	product, err := catalog.NewProduct(req.SKU, req.Name, req.Unit)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		_, err := repos.Products().FindBySKU(ctx, product.SKU)
		if err == nil {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Product with this SKU already exists").
				WithDetails(map[string]any{"sku": product.SKU})
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return repos.Products().Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
	)
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetProduct retrieves a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.scope.Reader().Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// ListProducts lists products with pagination
func (s *CatalogService) ListProducts(ctx context.Context, filter ListFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.scope.Reader().Products().List(ctx, toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out, total, nil
}

// CreateWarehouse creates a new warehouse
func (s *CatalogService) CreateWarehouse(ctx context.Context, actor shared.Actor, req CreateWarehouseRequest) (*WarehouseResponse, error) {
	if err := actor.Require(shared.CapCatalogManage); err != nil {
		return nil, err
	}
	warehouse, err := catalog.NewWarehouse(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		_, err := repos.Warehouses().FindByCode(ctx, warehouse.Code)
		if err == nil {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Warehouse with this code already exists").
				WithDetails(map[string]any{"code": warehouse.Code})
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return repos.Warehouses().Save(ctx, warehouse)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("warehouse created",
		zap.String("warehouse_id", warehouse.ID.String()),
		zap.String("code", warehouse.Code),
	)
	resp := ToWarehouseResponse(warehouse)
	return &resp, nil
}

// GetWarehouse retrieves a warehouse by ID
func (s *CatalogService) GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseResponse, error) {
	warehouse, err := s.scope.Reader().Warehouses().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToWarehouseResponse(warehouse)
	return &resp, nil
}

// ListWarehouses lists warehouses with pagination
func (s *CatalogService) ListWarehouses(ctx context.Context, filter ListFilter) ([]WarehouseResponse, int64, error) {
	warehouses, total, err := s.scope.Reader().Warehouses().List(ctx, toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	out := make([]WarehouseResponse, 0, len(warehouses))
	for i := range warehouses {
		out = append(out, ToWarehouseResponse(&warehouses[i]))
	}
	return out, total, nil
}

func toDomainFilter(f ListFilter) shared.Filter {
	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
	}.Normalize()
}
