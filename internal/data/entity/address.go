package entity

import (
	"time"

	"github.com/google/uuid"
)

// Address belongs to storage, not to the User lifecycle: the users table
// only back-references it. No core mutation path touches addresses yet.
type Address struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	Street     string    `json:"street" db:"street"`
	City       string    `json:"city" db:"city"`
	State      string    `json:"state" db:"state"`
	PostalCode string    `json:"postalCode" db:"postal_code"`
	Country    string    `json:"country" db:"country"`
	IsDefault  bool      `json:"isDefault" db:"is_default"`
	Label      *string   `json:"label" db:"label"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}
