package repository

import "context"

// Store opens an atomic unit of work spanning both repositories. The
// callback's repositories share one transaction: if it returns an error
// (or panics), nothing it wrote becomes visible.
type Store interface {
	InTransaction(ctx context.Context, fn func(customers CustomerRepository, payments PaymentRepository) error) error
}
