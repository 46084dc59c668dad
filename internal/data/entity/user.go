package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleVendor   UserRole = "VENDOR"
	RoleAdmin    UserRole = "ADMIN"
)

type UserStatus string

const (
	StatusActive      UserStatus = "ACTIVE"
	StatusDeactivated UserStatus = "DEACTIVATED"
	StatusSuspended   UserStatus = "SUSPENDED"
)

// User is the domain entity mapped from the users table. The password hash
// never leaves the storage layer. Addresses is always present but empty:
// address loading is not implemented in this core.
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	FirstName   string     `json:"firstName" db:"first_name"`
	LastName    string     `json:"lastName" db:"last_name"`
	Email       string     `json:"email" db:"email"`
	PhoneNumber *string    `json:"phoneNumber" db:"phone_number"`
	Role        UserRole   `json:"role" db:"role"`
	Status      UserStatus `json:"status" db:"status"`
	Addresses   []Address  `json:"addresses"`
	LastLoginAt *time.Time `json:"lastLoginAt" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}
