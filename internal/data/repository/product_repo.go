package repository

import (
	"context"
	"errors"
	"fmt"

	"superbuy/internal/data/entity"
	"superbuy/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductParams carries the storage-ready fields for a new product.
type CreateProductParams struct {
	SKU           string
	Title         string
	Description   string
	Price         decimal.Decimal
	Category      string
	Image         string
	AmountInStock int
}

type ProductRepository interface {
	Create(ctx context.Context, params CreateProductParams) (*entity.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	List(ctx context.Context) ([]*entity.Product, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*entity.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	BulkImport(ctx context.Context, products []CreateProductParams) (int, error)
}

type productRepository struct {
	db  *database.DB
	log *zap.Logger
}

func NewProductRepository(db *database.DB, log *zap.Logger) ProductRepository {
	return &productRepository{
		db:  db,
		log: log,
	}
}

const productColumns = `id, sku, title, description, price, category, image, amount_in_stock, amount_sold, created_at, updated_at`

var productUpdateColumns = map[string]string{
	"title":         "title",
	"description":   "description",
	"price":         "price",
	"category":      "category",
	"image":         "image",
	"amountInStock": "amount_in_stock",
	"amountSold":    "amount_sold",
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.Image,
		&p.AmountInStock,
		&p.AmountSold,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (pr *productRepository) Create(ctx context.Context, params CreateProductParams) (*entity.Product, error) {
	query := `
		INSERT INTO products (sku, title, description, price, category, image, amount_in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + productColumns

	row, err := pr.db.QueryRow(ctx, query,
		params.SKU,
		params.Title,
		params.Description,
		params.Price,
		params.Category,
		params.Image,
		params.AmountInStock,
	)
	if err != nil {
		return nil, err
	}

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("create product %s: %w", params.SKU, ErrCreateReturnedNoRow)
		}
		pr.log.Error("failed to create product",
			zap.Error(err),
			zap.String("sku", params.SKU),
		)
		return nil, database.Normalize(err, "create product", query)
	}

	return product, nil
}

func (pr *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	row, err := pr.db.QueryRow(ctx, query, id)
	if err != nil {
		return nil, err
	}

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		pr.log.Error("failed to find product by id",
			zap.Error(err),
			zap.String("product_id", id.String()),
		)
		return nil, database.Normalize(err, "find product by id", query)
	}

	return product, nil
}

func (pr *productRepository) List(ctx context.Context) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY title`

	rows, err := pr.db.Query(ctx, query)
	if err != nil {
		pr.log.Error("failed to list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := []*entity.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, database.Normalize(err, "scan product row", query)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Normalize(err, "iterate product rows", query)
	}

	return products, nil
}

func (pr *productRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*entity.Product, error) {
	if len(fields) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	setClause, args, err := buildSetClause(fields, productUpdateColumns)
	if err != nil {
		return nil, err
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", setClause, len(args))

	if _, err := pr.db.Exec(ctx, query, args...); err != nil {
		pr.log.Error("failed to update product",
			zap.Error(err),
			zap.String("product_id", id.String()),
		)
		return nil, err
	}

	product, err := pr.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("update product %s: %w", id.String(), ErrNotFoundAfterUpdate)
	}

	return product, nil
}

func (pr *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := pr.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		pr.log.Error("failed to delete product",
			zap.Error(err),
			zap.String("product_id", id.String()),
		)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// BulkImport upserts the catalog keyed on sku: existing products are updated
// in place, new ones inserted. Returns the number of resulting rows.
func (pr *productRepository) BulkImport(ctx context.Context, products []CreateProductParams) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	columns := []string{"sku", "title", "description", "price", "category", "image", "amount_in_stock"}
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{
			p.SKU, p.Title, p.Description, p.Price, p.Category, p.Image, p.AmountInStock,
		})
	}

	result, err := pr.db.Upsert(ctx, "products", columns, []string{"sku"}, rows)
	if err != nil {
		pr.log.Error("failed to bulk import products",
			zap.Error(err),
			zap.Int("count", len(products)),
		)
		return 0, err
	}

	return len(result), nil
}
