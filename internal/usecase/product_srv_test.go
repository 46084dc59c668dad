package usecase

import (
	"context"
	"testing"

	"superbuy/internal/data/entity"
	"superbuy/internal/data/repository"
	"superbuy/internal/dto/request"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProductRepo struct {
	createFn     func(ctx context.Context, params repository.CreateProductParams) (*entity.Product, error)
	findByIDFn   func(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	listFn       func(ctx context.Context) ([]*entity.Product, error)
	updateFn     func(ctx context.Context, id uuid.UUID, fields map[string]any) (*entity.Product, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) (bool, error)
	bulkImportFn func(ctx context.Context, products []repository.CreateProductParams) (int, error)
}

func (s *stubProductRepo) Create(ctx context.Context, params repository.CreateProductParams) (*entity.Product, error) {
	return s.createFn(ctx, params)
}

func (s *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	return s.findByIDFn(ctx, id)
}

func (s *stubProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	return s.listFn(ctx)
}

func (s *stubProductRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*entity.Product, error) {
	return s.updateFn(ctx, id, fields)
}

func (s *stubProductRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.deleteFn(ctx, id)
}

func (s *stubProductRepo) BulkImport(ctx context.Context, products []repository.CreateProductParams) (int, error) {
	return s.bulkImportFn(ctx, products)
}

func TestCreateProduct(t *testing.T) {
	var got repository.CreateProductParams
	repo := &stubProductRepo{
		createFn: func(ctx context.Context, params repository.CreateProductParams) (*entity.Product, error) {
			got = params
			return &entity.Product{ID: uuid.New(), SKU: params.SKU, Title: params.Title}, nil
		},
	}

	svc := NewProductService(repo, zap.NewNop())
	price := decimal.NewFromFloat(19.99)

	product, err := svc.CreateProduct(context.Background(), request.CreateProductRequest{
		SKU:           "SKU-1",
		Title:         "Desk Lamp",
		Price:         price,
		Category:      "home",
		AmountInStock: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "SKU-1", product.SKU)
	assert.True(t, got.Price.Equal(price))
	assert.Equal(t, 5, got.AmountInStock)
}

func TestGetProductByIDInvalid(t *testing.T) {
	svc := NewProductService(&stubProductRepo{}, zap.NewNop())
	_, err := svc.GetProductByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestUpdateProductAbsent(t *testing.T) {
	repo := &stubProductRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
			return nil, nil
		},
	}

	svc := NewProductService(repo, zap.NewNop())
	product, err := svc.UpdateProduct(context.Background(), uuid.NewString(), request.UpdateProductRequest{})
	assert.NoError(t, err)
	assert.Nil(t, product)
}

func TestDeleteProductAbsent(t *testing.T) {
	repo := &stubProductRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
			return nil, nil
		},
	}

	svc := NewProductService(repo, zap.NewNop())
	deleted, err := svc.DeleteProduct(context.Background(), uuid.NewString())
	assert.NoError(t, err)
	assert.False(t, deleted)
}

func TestBulkImportProducts(t *testing.T) {
	var got []repository.CreateProductParams
	repo := &stubProductRepo{
		bulkImportFn: func(ctx context.Context, products []repository.CreateProductParams) (int, error) {
			got = products
			return len(products), nil
		},
	}

	svc := NewProductService(repo, zap.NewNop())
	count, err := svc.BulkImportProducts(context.Background(), request.BulkImportProductsRequest{
		Products: []request.CreateProductRequest{
			{SKU: "SKU-1", Title: "Desk Lamp", Category: "home"},
			{SKU: "SKU-2", Title: "Desk Chair", Category: "home"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	require.Len(t, got, 2)
	assert.Equal(t, "SKU-2", got[1].SKU)
}
