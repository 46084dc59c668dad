package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item. SKU is the stable merchant-facing identifier
// bulk imports reconcile on.
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	SKU           string          `json:"sku" db:"sku"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Category      string          `json:"category" db:"category"`
	Image         string          `json:"image" db:"image"`
	AmountInStock int             `json:"amountInStock" db:"amount_in_stock"`
	AmountSold    int             `json:"amountSold" db:"amount_sold"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}
