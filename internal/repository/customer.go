package repository

import (
	"context"

	"pasarela/internal/domain"
)

// CustomerRepository defines the persistence operations for customers.
type CustomerRepository interface {
	// GetByNationalID retrieves a customer by cédula.
	// Returns ErrNotFound if the customer does not exist.
	GetByNationalID(ctx context.Context, nationalID string) (*domain.Customer, error)

	// Create persists a new customer.
	Create(ctx context.Context, customer *domain.Customer) error

	// Update overwrites the stored attributes of an existing customer.
	Update(ctx context.Context, customer *domain.Customer) error
}
