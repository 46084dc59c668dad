package usecase

import (
	"context"
	"fmt"

	"superbuy/internal/data/entity"
	"superbuy/internal/data/repository"
	"superbuy/internal/dto/request"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req request.CreateProductRequest) (*entity.Product, error)
	GetProductByID(ctx context.Context, id string) (*entity.Product, error)
	GetAllProducts(ctx context.Context) ([]*entity.Product, error)
	UpdateProduct(ctx context.Context, id string, req request.UpdateProductRequest) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
	BulkImportProducts(ctx context.Context, req request.BulkImportProductsRequest) (int, error)
}

type productService struct {
	productRepo repository.ProductRepository
	log         *zap.Logger
}

func NewProductService(productRepo repository.ProductRepository, log *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		log:         log,
	}
}

func (ps *productService) CreateProduct(ctx context.Context, req request.CreateProductRequest) (*entity.Product, error) {
	product, err := ps.productRepo.Create(ctx, repository.CreateProductParams{
		SKU:           req.SKU,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		Category:      req.Category,
		Image:         req.Image,
		AmountInStock: req.AmountInStock,
	})
	if err != nil {
		return nil, err
	}

	ps.log.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
	)
	return product, nil
}

func (ps *productService) GetProductByID(ctx context.Context, id string) (*entity.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return ps.productRepo.FindByID(ctx, productID)
}

func (ps *productService) GetAllProducts(ctx context.Context) ([]*entity.Product, error) {
	return ps.productRepo.List(ctx)
}

func (ps *productService) UpdateProduct(ctx context.Context, id string, req request.UpdateProductRequest) (*entity.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	existing, err := ps.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	return ps.productRepo.Update(ctx, productID, req.Fields())
}

func (ps *productService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	existing, err := ps.productRepo.FindByID(ctx, productID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	return ps.productRepo.Delete(ctx, productID)
}

func (ps *productService) BulkImportProducts(ctx context.Context, req request.BulkImportProductsRequest) (int, error) {
	params := make([]repository.CreateProductParams, 0, len(req.Products))
	for _, p := range req.Products {
		params = append(params, repository.CreateProductParams{
			SKU:           p.SKU,
			Title:         p.Title,
			Description:   p.Description,
			Price:         p.Price,
			Category:      p.Category,
			Image:         p.Image,
			AmountInStock: p.AmountInStock,
		})
	}

	count, err := ps.productRepo.BulkImport(ctx, params)
	if err != nil {
		return 0, err
	}

	ps.log.Info("products imported", zap.Int("count", count))
	return count, nil
}
