package request

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	SKU           string          `json:"sku" validate:"required,min=1,max=64"`
	Title         string          `json:"title" validate:"required,min=1,max=200"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category" validate:"required"`
	Image         string          `json:"image"`
	AmountInStock int             `json:"amountInStock" validate:"min=0"`
}

type UpdateProductRequest struct {
	Title         *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Category      *string          `json:"category" validate:"omitempty,min=1"`
	Image         *string          `json:"image"`
	AmountInStock *int             `json:"amountInStock" validate:"omitempty,min=0"`
	AmountSold    *int             `json:"amountSold" validate:"omitempty,min=0"`
}

func (r UpdateProductRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.Title != nil {
		fields["title"] = *r.Title
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.Price != nil {
		fields["price"] = *r.Price
	}
	if r.Category != nil {
		fields["category"] = *r.Category
	}
	if r.Image != nil {
		fields["image"] = *r.Image
	}
	if r.AmountInStock != nil {
		fields["amountInStock"] = *r.AmountInStock
	}
	if r.AmountSold != nil {
		fields["amountSold"] = *r.AmountSold
	}
	return fields
}

// BulkImportProductsRequest wraps a catalog upload reconciled on sku.
type BulkImportProductsRequest struct {
	Products []CreateProductRequest `json:"products" validate:"required,min=1,dive"`
}
