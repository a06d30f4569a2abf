package postgres

import (
	"context"
	"database/sql"

	"pasarela/internal/repository"
)

// Store is a PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates a new PostgreSQL store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InTransaction runs fn with transaction-scoped repositories. The
// transaction is rolled back on error and committed otherwise.
func (s *Store) InTransaction(ctx context.Context, fn func(customers repository.CustomerRepository, payments repository.PaymentRepository) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txCustomerRepo := NewCustomerRepositoryWithTx(tx)
	txPaymentRepo := NewPaymentRepositoryWithTx(tx)

	if err = fn(txCustomerRepo, txPaymentRepo); err != nil {
		return err
	}

	return tx.Commit()
}
