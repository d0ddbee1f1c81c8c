package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storecraft/backend/internal/domain/shared"
)

// Account roles. Operators are store staff provisioned through the
// management console; self-registration always yields a customer.
const (
	RoleCustomer = "customer"
	RoleOperator = "operator"
)

// Customer represents a shopper account scoped to a single store
type Customer struct {
	shared.BaseAggregateRoot
	StoreID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customer_store_email,priority:1"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_customer_store_email,priority:2"`
	Name         string    `gorm:"type:varchar(100);not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:'customer'"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer account with a pre-hashed password
func NewCustomer(storeID uuid.UUID, email, name, passwordHash string) (*Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_EMAIL", "A valid email address is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError("INVALID_PASSWORD", "Password hash cannot be empty")
	}

	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		Email:             email,
		Name:              name,
		PasswordHash:      passwordHash,
		Role:              RoleCustomer,
	}

	c.AddDomainEvent(NewCustomerRegisteredEvent(c))

	return c, nil
}

// RecordLogin stamps the last successful login time
func (c *Customer) RecordLogin() {
	now := time.Now()
	c.LastLoginAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()
}
