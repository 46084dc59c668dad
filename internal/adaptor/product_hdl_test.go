package adaptor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"superbuy/internal/data/entity"
	"superbuy/internal/data/repository"
	"superbuy/internal/dto/request"
	"superbuy/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProductService struct {
	createFn func(ctx context.Context, req request.CreateProductRequest) (*entity.Product, error)
	getFn    func(ctx context.Context, id string) (*entity.Product, error)
	listFn   func(ctx context.Context) ([]*entity.Product, error)
	updateFn func(ctx context.Context, id string, req request.UpdateProductRequest) (*entity.Product, error)
	deleteFn func(ctx context.Context, id string) (bool, error)
	importFn func(ctx context.Context, req request.BulkImportProductsRequest) (int, error)
}

func (s *stubProductService) CreateProduct(ctx context.Context, req request.CreateProductRequest) (*entity.Product, error) {
	return s.createFn(ctx, req)
}

func (s *stubProductService) GetProductByID(ctx context.Context, id string) (*entity.Product, error) {
	return s.getFn(ctx, id)
}

func (s *stubProductService) GetAllProducts(ctx context.Context) ([]*entity.Product, error) {
	return s.listFn(ctx)
}

func (s *stubProductService) UpdateProduct(ctx context.Context, id string, req request.UpdateProductRequest) (*entity.Product, error) {
	return s.updateFn(ctx, id, req)
}

func (s *stubProductService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return s.deleteFn(ctx, id)
}

func (s *stubProductService) BulkImportProducts(ctx context.Context, req request.BulkImportProductsRequest) (int, error) {
	return s.importFn(ctx, req)
}

func productRouter(service usecase.ProductService) *chi.Mux {
	h := NewProductHandler(service, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/products", h.CreateProduct)
	r.Post("/products/import", h.BulkImportProducts)
	r.Get("/products", h.GetAllProducts)
	r.Get("/products/{id}", h.GetProductByID)
	r.Patch("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)
	return r
}

func TestCreateProductHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		service := &stubProductService{
			createFn: func(ctx context.Context, req request.CreateProductRequest) (*entity.Product, error) {
				return &entity.Product{ID: uuid.New(), SKU: req.SKU}, nil
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(
			`{"sku":"SKU-1","title":"Desk Lamp","price":"19.99","category":"home"}`))
		productRouter(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("missing required fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"title":"Desk Lamp"}`))
		productRouter(&stubProductService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateProductHandler(t *testing.T) {
	t.Run("allow-list rejection", func(t *testing.T) {
		service := &stubProductService{
			updateFn: func(ctx context.Context, id string, req request.UpdateProductRequest) (*entity.Product, error) {
				return nil, &repository.UnknownFieldError{Field: "sku"}
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/products/"+uuid.NewString(),
			strings.NewReader(`{"title":"Desk Lamp"}`))
		productRouter(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeResponse(t, rec)
		assert.Contains(t, body.Message, "sku")
	})

	t.Run("absent product is 404", func(t *testing.T) {
		service := &stubProductService{
			updateFn: func(ctx context.Context, id string, req request.UpdateProductRequest) (*entity.Product, error) {
				return nil, nil
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/products/"+uuid.NewString(),
			strings.NewReader(`{"title":"Desk Lamp"}`))
		productRouter(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBulkImportProductsHandler(t *testing.T) {
	t.Run("reports imported count", func(t *testing.T) {
		service := &stubProductService{
			importFn: func(ctx context.Context, req request.BulkImportProductsRequest) (int, error) {
				return len(req.Products), nil
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products/import", strings.NewReader(
			`{"products":[{"sku":"SKU-1","title":"Desk Lamp","category":"home"},{"sku":"SKU-2","title":"Desk Chair","category":"home"}]}`))
		productRouter(service).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeResponse(t, rec)
		data, ok := body.Data.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 2, data["imported"])
	})

	t.Run("empty product list rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products/import", strings.NewReader(`{"products":[]}`))
		productRouter(&stubProductService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
